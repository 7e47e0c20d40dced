package svgmaker

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Quality levels accepted by the generation endpoints.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

var validQualities = map[string]struct{}{
	QualityLow:    {},
	QualityMedium: {},
	QualityHigh:   {},
}

// GenerateParams describes a text-to-SVG generation. The zero value of every
// optional field means "service default". Params are plain values: copy and
// Merge produce new values, issued requests never observe later edits.
type GenerateParams struct {
	// Prompt is the text description of the image to generate. Required.
	Prompt string

	// Quality is one of QualityLow, QualityMedium, QualityHigh.
	Quality string

	// AspectRatio such as "1:1", "16:9".
	AspectRatio string

	// Background is "transparent" or a CSS color.
	Background string

	// StyleParams are free-form style hints passed through to the service.
	StyleParams map[string]string

	// Timeout overrides the client request timeout for this call.
	Timeout time.Duration
}

// Merge returns a copy of p with every non-zero field of o applied on top.
func (p GenerateParams) Merge(o GenerateParams) GenerateParams {
	out := p
	if o.Prompt != "" {
		out.Prompt = o.Prompt
	}
	if o.Quality != "" {
		out.Quality = o.Quality
	}
	if o.AspectRatio != "" {
		out.AspectRatio = o.AspectRatio
	}
	if o.Background != "" {
		out.Background = o.Background
	}
	if len(o.StyleParams) > 0 {
		merged := make(map[string]string, len(p.StyleParams)+len(o.StyleParams))
		for k, v := range p.StyleParams {
			merged[k] = v
		}
		for k, v := range o.StyleParams {
			merged[k] = v
		}
		out.StyleParams = merged
	}
	if o.Timeout > 0 {
		out.Timeout = o.Timeout
	}
	return out
}

// Validate checks the parameters before any network work.
func (p GenerateParams) Validate() error {
	if p.Prompt == "" {
		return &APIError{Kind: KindValidation, Message: "prompt is required"}
	}
	if err := validateQuality(p.Quality); err != nil {
		return err
	}
	return nil
}

func (p GenerateParams) request() *apiRequest {
	body := map[string]any{"prompt": p.Prompt}
	if p.Quality != "" {
		body["quality"] = p.Quality
	}
	if p.AspectRatio != "" {
		body["aspectRatio"] = p.AspectRatio
	}
	if p.Background != "" {
		body["background"] = p.Background
	}
	if len(p.StyleParams) > 0 {
		body["styleParams"] = p.StyleParams
	}
	return &apiRequest{
		method:   http.MethodPost,
		path:     "generate",
		jsonBody: body,
		timeout:  p.Timeout,
	}
}

// EditParams describes an image edit guided by a prompt. Image holds the
// file content so the request stays replayable; use ReadImageFile to load
// one from disk.
type EditParams struct {
	// Image is the input file content. Required.
	Image []byte

	// ImageName is the filename reported in the multipart form.
	ImageName string

	// Prompt describes the edit to apply. Required.
	Prompt string

	// Quality is one of QualityLow, QualityMedium, QualityHigh.
	Quality string

	// StyleParams are free-form style hints passed through to the service.
	StyleParams map[string]string

	// Timeout overrides the client request timeout for this call.
	Timeout time.Duration
}

// Merge returns a copy of p with every non-zero field of o applied on top.
func (p EditParams) Merge(o EditParams) EditParams {
	out := p
	if len(o.Image) > 0 {
		out.Image = o.Image
	}
	if o.ImageName != "" {
		out.ImageName = o.ImageName
	}
	if o.Prompt != "" {
		out.Prompt = o.Prompt
	}
	if o.Quality != "" {
		out.Quality = o.Quality
	}
	if len(o.StyleParams) > 0 {
		merged := make(map[string]string, len(p.StyleParams)+len(o.StyleParams))
		for k, v := range p.StyleParams {
			merged[k] = v
		}
		for k, v := range o.StyleParams {
			merged[k] = v
		}
		out.StyleParams = merged
	}
	if o.Timeout > 0 {
		out.Timeout = o.Timeout
	}
	return out
}

// Validate checks the parameters before any network work.
func (p EditParams) Validate() error {
	if len(p.Image) == 0 {
		return &APIError{Kind: KindValidation, Message: "image is required"}
	}
	if p.Prompt == "" {
		return &APIError{Kind: KindValidation, Message: "prompt is required"}
	}
	if err := validateQuality(p.Quality); err != nil {
		return err
	}
	return nil
}

func (p EditParams) request() *apiRequest {
	form := newFormPayload()
	form.setField("prompt", p.Prompt)
	form.setField("quality", p.Quality)
	for key, value := range p.StyleParams {
		form.setField("styleParams["+key+"]", value)
	}
	form.addFile("image", fileNameOrDefault(p.ImageName, "image.png"), p.Image)
	return &apiRequest{
		method:  http.MethodPost,
		path:    "edit",
		form:    form,
		timeout: p.Timeout,
	}
}

// ConvertParams describes a raster-to-SVG conversion.
type ConvertParams struct {
	// File is the input file content. Required.
	File []byte

	// FileName is the filename reported in the multipart form.
	FileName string

	// Formats lists additional output formats to produce alongside SVG,
	// repeated as multiple same-named query entries.
	Formats []string

	// Timeout overrides the client request timeout for this call.
	Timeout time.Duration
}

// Merge returns a copy of p with every non-zero field of o applied on top.
func (p ConvertParams) Merge(o ConvertParams) ConvertParams {
	out := p
	if len(o.File) > 0 {
		out.File = o.File
	}
	if o.FileName != "" {
		out.FileName = o.FileName
	}
	if len(o.Formats) > 0 {
		out.Formats = append([]string(nil), o.Formats...)
	}
	if o.Timeout > 0 {
		out.Timeout = o.Timeout
	}
	return out
}

// Validate checks the parameters before any network work.
func (p ConvertParams) Validate() error {
	if len(p.File) == 0 {
		return &APIError{Kind: KindValidation, Message: "file is required"}
	}
	return nil
}

func (p ConvertParams) request() *apiRequest {
	form := newFormPayload()
	form.addFile("file", fileNameOrDefault(p.FileName, "image.png"), p.File)

	var query url.Values
	if len(p.Formats) > 0 {
		query = url.Values{}
		for _, format := range p.Formats {
			query.Add("format", format)
		}
	}
	return &apiRequest{
		method:  http.MethodPost,
		path:    "convert",
		query:   query,
		form:    form,
		timeout: p.Timeout,
	}
}

func validateQuality(quality string) error {
	if quality == "" {
		return nil
	}
	if _, ok := validQualities[quality]; !ok {
		return &APIError{Kind: KindValidation, Message: fmt.Sprintf("invalid quality %q", quality)}
	}
	return nil
}

func fileNameOrDefault(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
