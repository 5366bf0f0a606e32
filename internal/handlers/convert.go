package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

// IDGenerator generates conversion identifiers.
type IDGenerator func() string

// ConvertHandler handles markdown conversion requests.
type ConvertHandler struct {
	converter Converter
	newID     IDGenerator
	logger    *zap.Logger
}

// NewConvertHandler creates a new conversion handler.
func NewConvertHandler(converter Converter, newID IDGenerator, logger *zap.Logger) *ConvertHandler {
	return &ConvertHandler{
		converter: converter,
		newID:     newID,
		logger:    logger,
	}
}

// Convert runs the converter. The quota middleware has already admitted the
// request by the time this is called.
func (h *ConvertHandler) Convert(ctx context.Context, req *ConvertRequest) (*ConvertResponse, error) {
	id := h.newID()
	meta := RequestMetaFromContext(ctx)

	html, err := h.converter.Convert(ctx, req.Body.Markdown, req.Body.StylePrompt)
	if err != nil {
		h.logger.Error("conversion failed",
			zap.String("id", id),
			zap.String("client_ip", meta.ClientIP),
			zap.Error(err),
		)

		return nil, huma.Error502BadGateway("conversion failed")
	}

	if html == "" {
		html = "Empty"
	}

	h.logger.Info("conversion completed",
		zap.String("id", id),
		zap.String("client_ip", meta.ClientIP),
		zap.Int("markdown_bytes", len(req.Body.Markdown)),
	)

	resp := &ConvertResponse{}
	resp.Body.ID = id
	resp.Body.HTML = html

	return resp, nil
}
