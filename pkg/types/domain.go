package types

// PredictRequest is the decoded multipart form of a prediction request.
// Metadata fields are kept raw; the encoder decides how to interpret them.
type PredictRequest struct {
	// Image bytes (JPEG or PNG).
	Image []byte `json:"-"`
	// Original upload file name.
	Filename string `json:"filename,omitempty"`
	// Patient age as submitted. Non-numeric values encode as the training mean.
	// example: 65
	Age string `json:"age" example:"65"`
	// Patient sex as submitted (case-insensitive).
	// example: female
	Sex string `json:"sex" example:"female"`
	// Anatomical site as submitted (case-insensitive).
	// example: head/neck
	Site string `json:"anatom_site_general" example:"head/neck"`
	// Number of ranked classes to return.
	// example: 3
	TopK int `json:"top_k,omitempty" example:"3"`
}
