package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"docsmith/internal/config"
	"docsmith/internal/convertcache"
	"docsmith/internal/converters"
	"docsmith/internal/fileutil"
	"docsmith/internal/logging"
	"docsmith/internal/services"
	"docsmith/internal/services/gemini"
)

const convertInstruction = "Convert this document to clean, well-structured Markdown. " +
	"Preserve headings, lists, and tables. If any part of the document cannot be read faithfully, " +
	"begin the response with " + gemini.UncertaintyMarker + "."

// convertOne is the body of a single executor task. Every failure path writes
// a Markdown error artifact before returning so the output tree never has a
// silent gap.
func (p *Pipeline) convertOne(ctx context.Context, inputPath, outputPath string, category converters.Category) (string, error) {
	if category == converters.CategoryUnsupported {
		err := services.Wrap(services.ErrUnsupported, "pipeline", "convert",
			fmt.Sprintf("no converter for %s files", filepath.Ext(inputPath)), nil)
		p.writeFailureArtifact(outputPath, inputPath, category, err)
		return "", err
	}

	hash, err := fileutil.HashFile(inputPath)
	if err != nil {
		err = services.Wrap(services.ErrValidation, "pipeline", "convert", "hash input", err)
		p.writeFailureArtifact(outputPath, inputPath, category, err)
		return "", err
	}

	if path, ok := p.replayFromCache(hash, outputPath, inputPath); ok {
		return path, nil
	}

	oversize, reason := converters.CheckOversize(inputPath)

	content, uncertain, err := p.produce(ctx, inputPath, category)
	if err != nil {
		p.writeFailureArtifact(outputPath, inputPath, category, err)
		return "", err
	}

	if uncertain {
		content = append([]byte(converters.UncertainNote()), content...)
	}
	if oversize {
		content = append([]byte(converters.OversizeNote(reason)), content...)
	}

	if err := writeArtifact(outputPath, content); err != nil {
		return "", services.Wrap(services.ErrValidation, "pipeline", "convert", "write artifact", err)
	}

	entry := convertcache.Entry{
		Hash:             hash,
		Mode:             p.cfg.Conversion.Mode,
		OriginalFilename: filepath.Base(inputPath),
		OutputPath:       outputPath,
		FileType:         string(category),
		IsLarge:          oversize,
	}
	if err := p.deps.Cache.Store(entry, content); err != nil {
		p.logger.Warn("failed to cache conversion",
			logging.String(logging.FieldFile, inputPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file will be reconverted on the next run"))
	}
	return outputPath, nil
}

// produce dispatches by category and mode and returns the rendered Markdown.
func (p *Pipeline) produce(ctx context.Context, inputPath string, category converters.Category) (content []byte, uncertain bool, err error) {
	switch category {
	case converters.CategoryText:
		data, readErr := os.ReadFile(inputPath)
		if readErr != nil {
			return nil, false, services.Wrap(services.ErrValidation, "pipeline", "convert", "read input", readErr)
		}
		return []byte(converters.TextArtifact(inputPath, data)), false, nil

	case converters.CategoryDocument:
		content, err = p.deps.Runner.Markdown(ctx, inputPath)
		return content, false, err

	case converters.CategoryPDF:
		if p.cfg.Conversion.Mode == config.ModeAPIAssisted {
			return p.generate(ctx, inputPath)
		}
		content, err = p.deps.Runner.Markdown(ctx, inputPath)
		return content, false, err

	case converters.CategoryImage:
		if p.cfg.Conversion.Mode == config.ModeAPIAssisted && p.deps.Gemini != nil {
			return p.generate(ctx, inputPath)
		}
		if p.deps.OCR == nil {
			return nil, false, services.Wrap(services.ErrConfiguration, "pipeline", "convert",
				"no ocr engine configured for image conversion", nil)
		}
		text, ocrErr := p.deps.OCR.Transcribe(ctx, inputPath)
		if ocrErr != nil {
			return nil, false, ocrErr
		}
		return []byte(text + "\n"), false, nil

	default:
		return nil, false, services.Wrap(services.ErrUnsupported, "pipeline", "convert",
			fmt.Sprintf("unhandled category %s", category), nil)
	}
}

// generate sends the raw file to the hosted API.
func (p *Pipeline) generate(ctx context.Context, inputPath string) ([]byte, bool, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, false, services.Wrap(services.ErrValidation, "pipeline", "convert", "read input", err)
	}
	result, err := p.deps.Gemini.Submit(ctx, convertInstruction, gemini.Payload{
		MIMEType: converters.MIMEType(inputPath),
		Data:     data,
	})
	if err != nil {
		return nil, false, err
	}
	return []byte(result.Text + "\n"), result.Uncertain, nil
}

// replayFromCache copies a prior conversion into place. Any cache read
// problem falls back to reconverting.
func (p *Pipeline) replayFromCache(hash, outputPath, inputPath string) (string, bool) {
	if _, ok := p.deps.Cache.Lookup(hash, p.cfg.Conversion.Mode); !ok {
		return "", false
	}
	content, err := p.deps.Cache.ReadContent(hash)
	if err != nil {
		p.logger.Warn("cache entry present but content unreadable",
			logging.String(logging.FieldHash, hash),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file reconverted from scratch"))
		return "", false
	}
	if err := writeArtifact(outputPath, content); err != nil {
		p.logger.Warn("failed to replay cached content",
			logging.String(logging.FieldFile, outputPath),
			logging.Error(err))
		return "", false
	}
	p.logger.Debug("cache hit",
		logging.String(logging.FieldHash, hash),
		logging.String(logging.FieldFile, inputPath))
	return outputPath, true
}

func (p *Pipeline) writeFailureArtifact(outputPath, inputPath string, category converters.Category, cause error) {
	artifact := converters.FailureArtifact(inputPath, category, cause)
	if err := writeArtifact(outputPath, []byte(artifact)); err != nil {
		p.logger.Warn("failed to write error artifact",
			logging.String(logging.FieldFile, outputPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "failure visible only in logs and summary"))
	}
}

func writeArtifact(outputPath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(outputPath, content, 0o644)
}
