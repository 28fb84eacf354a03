package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := map[string]Route{
		"":                   Home(),
		"/":                  Home(),
		"#/":                 Home(),
		"#/projects":         {View: ViewProjects},
		"projects":           {View: ViewProjects},
		"/projects/":         {View: ViewProjects},
		"/projects?sort=new": {View: ViewProjects},
		"/create":            {View: ViewCreate},
		"#/stats":            {View: ViewStats},
		"/project/p_1":       {View: ViewProjectDetail, ProjectID: "p_1"},
		"#/project/p_1/":     {View: ViewProjectDetail, ProjectID: "p_1"},
		"/project/p_1/edit":  {View: ViewProjectDetail, ProjectID: "p_1"},
		"/project/":          Home(),
		"/project":           Home(),
		"/unknown":           Home(),
		"/projectsx":         Home(),
		"///":                Home(),
	}
	for in, want := range cases {
		assert.Equal(t, want, Parse(in), "fragment %q", in)
	}
}

func TestForRoundTripsThroughParse(t *testing.T) {
	assert.Equal(t, Route{View: ViewProjectDetail, ProjectID: "project_1_ab"}, For(ViewProjectDetail, "project_1_ab"))
	assert.Equal(t, Route{View: ViewStats}, For(ViewStats, "ignored"))
	assert.Equal(t, Home(), For(ViewProjectDetail, ""))
	assert.Equal(t, Home(), For("bogus", ""))

	r := Route{View: ViewProjectDetail, ProjectID: "a b"}
	assert.Equal(t, r, Parse(r.Fragment()))
}
