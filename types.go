package svgmaker

// GenerateResult is the decoded payload of a successful Generate call.
type GenerateResult struct {
	// SVGURL points at the generated SVG.
	SVGURL string `json:"svgUrl"`

	// PNGURL points at a raster preview, when the service produced one.
	PNGURL string `json:"pngUrl,omitempty"`

	// GenerationID identifies the generation for follow-up edits.
	GenerationID string `json:"generationId,omitempty"`

	// CreditCost is the credit price of this generation.
	CreditCost float64 `json:"creditCost,omitempty"`

	// Quality echoes the quality level the service applied.
	Quality string `json:"quality,omitempty"`

	// Metadata carries request correlation and credit accounting.
	Metadata *Metadata `json:"-"`
}

// EditResult is the decoded payload of a successful Edit call.
type EditResult struct {
	SVGURL       string  `json:"svgUrl"`
	PNGURL       string  `json:"pngUrl,omitempty"`
	GenerationID string  `json:"generationId,omitempty"`
	CreditCost   float64 `json:"creditCost,omitempty"`

	// Metadata carries request correlation and credit accounting.
	Metadata *Metadata `json:"-"`
}

// ConvertResult is the decoded payload of a successful Convert call.
type ConvertResult struct {
	SVGURL     string  `json:"svgUrl"`
	CreditCost float64 `json:"creditCost,omitempty"`

	// Metadata carries request correlation and credit accounting.
	Metadata *Metadata `json:"-"`
}
