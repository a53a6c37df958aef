package model

import "time"

// InputKind says where a batch input comes from
type InputKind string

const (
	InputFile InputKind = "file"
	InputURL  InputKind = "url"
)

// InputCheck is the preflight result for one batch input
type InputCheck struct {
	Input        string     `json:"input"`
	Kind         InputKind  `json:"kind"`
	Accessible   bool       `json:"accessible"`
	IsDead       bool       `json:"is_dead"` // 404/410 or missing file
	StatusCode   int        `json:"status_code,omitempty"`
	Size         int64      `json:"size,omitempty"`
	ContentType  string     `json:"content_type,omitempty"`
	RedirectURL  string     `json:"redirect_url,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Error        string     `json:"error,omitempty"`
}
