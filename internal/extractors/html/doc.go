// Package html extracts readable text from HTML documents.
//
// Script, style and head sections are dropped. Block elements become line
// breaks so paragraph boundaries survive for sentence-based chunking.
package html
