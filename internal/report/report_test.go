package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lineament/tracerepo/internal/schema"
	"github.com/lineament/tracerepo/internal/validation"
)

func sampleInstructions() []validation.UpdateInstruction {
	return []validation.UpdateInstruction{
		{
			AreaName: "getaberget_20m_1_area",
			Values:   map[schema.Column]string{schema.ColValidity: string(schema.ValidityValid)},
		},
		{
			AreaName: "getaberget_20m_2_area",
			Values:   map[schema.Column]string{schema.ColValidity: string(schema.ValidityCritical)},
			Err:      errors.New("read failed"),
		},
	}
}

func TestMarkdown(t *testing.T) {
	run := NewRun()
	run.Finish(sampleInstructions())

	md := run.Markdown()
	require.Contains(t, md, "# Validation run "+run.ID)
	require.Contains(t, md, "- Datasets: 2")
	require.Contains(t, md, "| getaberget_20m_1_area | valid |  |")
	require.Contains(t, md, "| getaberget_20m_2_area | critical | read failed |")
}

func TestWriteAndRenderHTML(t *testing.T) {
	run := NewRun()
	run.Finish(sampleInstructions())

	dir := filepath.Join(t.TempDir(), "reports")
	mdPath, err := run.Write(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "run-"+run.ID+".md"), mdPath)

	htmlPath, err := RenderHTML(mdPath)
	require.NoError(t, err)
	require.Equal(t, strings.TrimSuffix(mdPath, ".md")+".html", htmlPath)

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	require.Contains(t, string(html), "<table>")
	require.Contains(t, string(html), "getaberget_20m_2_area")
}

func TestRenderHTMLMissingFile(t *testing.T) {
	_, err := RenderHTML(filepath.Join(t.TempDir(), "absent.md"))
	require.Error(t, err)
}

func TestNewRunIDsAreUnique(t *testing.T) {
	require.NotEqual(t, NewRun().ID, NewRun().ID)
}
