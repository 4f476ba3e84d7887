package xbrl

// Arc attributes shared by every relationship kind.
type Arc struct {
	From     string
	To       string
	Order    float64
	Priority int
	Use      string
}

func (a Arc) Prohibited() bool { return a.Use == "prohibited" }

type PresentationArc struct {
	Arc
	PreferredLabel string
}

type CalculationArc struct {
	Arc
	Weight float64
}

type DefinitionArc struct {
	Arc
	Arcrole string
}

type PresentationLink struct {
	Role string
	Arcs []PresentationArc
}

type CalculationLink struct {
	Role string
	Arcs []CalculationArc
}

type DefinitionLink struct {
	Role string
	Arcs []DefinitionArc
}

type Label struct {
	Concept string
	Role    string
	Lang    string
	Text    string
}

type LabelLink struct {
	Role   string
	Labels []Label
}

type ReferencePart struct {
	Name  string
	Value string
}

type Reference struct {
	Concept string
	Role    string
	Parts   []ReferencePart
}

type ReferenceLink struct {
	Role       string
	References []Reference
}
