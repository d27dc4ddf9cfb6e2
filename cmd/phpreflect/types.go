package main

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIClass is a JSON-friendly class representation.
type CLIClass struct {
	Name        string      `json:"name"`
	Kind        string      `json:"kind"`
	File        string      `json:"file,omitempty"`
	StartLine   int         `json:"start_line"`
	Parent      string      `json:"parent,omitempty"`
	Interfaces  []string    `json:"interfaces,omitempty"`
	Traits      []string    `json:"traits,omitempty"`
	Annotations []string    `json:"annotations,omitempty"`
	Constants   []CLIMember `json:"constants,omitempty"`
	Properties  []CLIMember `json:"properties,omitempty"`
	Methods     []CLIMember `json:"methods,omitempty"`
}

// CLIMember is a class member with its resolved doc-comment types.
type CLIMember struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Signature string   `json:"signature"`
	DocTypes  []string `json:"doc_types,omitempty"`
	DocError  string   `json:"doc_error,omitempty"`
}

// CLIUse is a JSON-friendly use statement.
type CLIUse struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
	Kind  string `json:"kind"`
}

// CLIResolution is the answer to a resolve query.
type CLIResolution struct {
	Class    string `json:"class"`
	Short    string `json:"short"`
	Resolved string `json:"resolved,omitempty"`
	Found    bool   `json:"found"`
}

// CLIAnnotations holds the sanitized doc comment lines of one declaration.
type CLIAnnotations struct {
	Target string   `json:"target"`
	Lines  []string `json:"lines"`
}
