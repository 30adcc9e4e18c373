package cli

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/custodia-labs/vdb/internal/core/domain"
	"github.com/custodia-labs/vdb/internal/logger"
)

var stageLabels = map[domain.IngestStage]string{
	domain.StageUpload:  "[cyan]Uploading[reset]",
	domain.StageExtract: "[cyan]Extracting[reset]",
	domain.StageEmbed:   "[cyan]Embedding[reset]",
	domain.StageIndex:   "[cyan]Indexing[reset]",
}

// ingestProgress draws one bar per ingestion stage.
// With bars disabled, stages are logged at debug level.
type ingestProgress struct {
	w       io.Writer
	enabled bool
	stage   domain.IngestStage
	bar     *progressbar.ProgressBar
}

func newIngestProgress(w io.Writer, enabled bool) *ingestProgress {
	return &ingestProgress{w: w, enabled: enabled}
}

// update is a domain.ProgressFunc.
func (p *ingestProgress) update(stage domain.IngestStage, done, total int) {
	if !p.enabled {
		if stage != p.stage {
			logger.Debug("Stage %s (%d/%d)", stage, done, total)
			p.stage = stage
		}
		return
	}

	if stage != p.stage || p.bar == nil {
		p.finish()
		p.stage = stage
		if stage == domain.StageDone {
			return
		}
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription(stageLabels[stage]),
			progressbar.OptionClearOnFinish(),
		)
	}
	p.bar.Set(done) //nolint:errcheck // Rendering only
}

// finish closes the current bar.
func (p *ingestProgress) finish() {
	if p.bar != nil {
		p.bar.Finish() //nolint:errcheck // Rendering only
		p.bar = nil
	}
}
