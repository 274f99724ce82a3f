package main

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIClass is one row of the classes listing.
type CLIClass struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Module         string `json:"module,omitempty"`
	File           string `json:"file,omitempty"`
	Compiled       bool   `json:"compiled"`
	Fields         int    `json:"fields"`
	Methods        int    `json:"methods"`
	FeatureEnabled bool   `json:"feature_enabled"`
}

// CLIMember is a synthetic field or method.
type CLIMember struct {
	Kind       string   `json:"kind"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Params     []string `json:"params,omitempty"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Accessor   string   `json:"accessor,omitempty"`
	Field      string   `json:"field,omitempty"`
	Origin     string   `json:"origin,omitempty"`
	Navigation string   `json:"navigation"`
}

// CLIAugment is the result of the augment command.
type CLIAugment struct {
	Class          string      `json:"class"`
	Kind           string      `json:"kind"`
	FeatureEnabled bool        `json:"feature_enabled"`
	IndexReady     bool        `json:"index_ready"`
	Reason         string      `json:"reason"`
	Members        []CLIMember `json:"members"`
}

// CLIOperator is the result of the operator command.
type CLIOperator struct {
	Expression string `json:"expression"`
	Token      string `json:"token"`
	Category   string `json:"category"`
	LeftType   string `json:"left_type"`
	RightType  string `json:"right_type,omitempty"`
	Overloaded bool   `json:"overloaded"`
	Method     string `json:"method,omitempty"`
	Static     bool   `json:"static,omitempty"`
}

// CLIRelation is one edge of a class hierarchy.
type CLIRelation struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Relation string `json:"relation"`
	Depth    int    `json:"depth"`
}

// CLIHierarchy is the result of the hierarchy command.
type CLIHierarchy struct {
	Class      string        `json:"class"`
	Supertypes []CLIRelation `json:"supertypes"`
	Subtypes   []CLIRelation `json:"subtypes"`
	Unresolved []string      `json:"unresolved,omitempty"`
}

// CLIDiff is the result of the diff command.
type CLIDiff struct {
	Class   string `json:"class"`
	Added   int    `json:"added"`
	Diff    string `json:"diff"`
	Outline string `json:"outline"`
}
