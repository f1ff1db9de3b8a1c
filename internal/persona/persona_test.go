package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cfo.json", `{
  "name": "CFO",
  "description": "Owns the numbers",
  "goals": ["cut costs", "grow margin"],
  "pain_points": ["late reports"],
  "trait": {"risk_averse": true}
}`)
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "CFO", p.Name)
	assert.Equal(t, []string{"cut costs", "grow margin"}, p.Goals)
	assert.Equal(t, []string{"late reports"}, p.PainPoints)
	assert.Equal(t, DefaultPreferences(), p.Preferences)
	assert.Equal(t, true, p.Trait["risk_averse"])
}

func TestLoadYAMLKeepsPreferences(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vp.yml", `
name: VP
goals:
  - hit quota
preferences:
  tone: direct
`)
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "VP", p.Name)
	assert.Equal(t, map[string]string{"tone": "direct"}, p.Preferences)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(writeFile(t, dir, "p.toml", `name = "x"`))
	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, ".toml", ufe.Ext)

	_, err = Load(writeFile(t, dir, "anon.json", `{"description": "no name", "name": "  "}`))
	var mfe *MissingFieldError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, "name", mfe.Field)

	_, err = Load(writeFile(t, dir, "bad.yaml", "name: [unclosed"))
	require.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := New("Head of Ops")
	p.Goals = []string{"reduce downtime"}

	for _, name := range []string{"ops.yaml", "ops.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, p.Save(path))
		got, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, p, got, name)
	}

	assert.Error(t, p.Save(filepath.Join(dir, "ops.txt")))
	var mfe *MissingFieldError
	assert.ErrorAs(t, (&Persona{}).Save(filepath.Join(dir, "x.yaml")), &mfe)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"name": "Zed"}`)
	writeFile(t, dir, "a.yaml", "name: Amy\n")
	writeFile(t, dir, "notes.md", "# not a persona")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	ps, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "Amy", ps[0].Name)
	assert.Equal(t, "Zed", ps[1].Name)

	writeFile(t, dir, "broken.json", `{"goals": []}`)
	_, err = LoadDir(dir)
	var mfe *MissingFieldError
	assert.ErrorAs(t, err, &mfe)
}

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{"Chief Financial Officer", "VP of Sales"}, BuiltinNames())

	p, ok := Builtin("vp of sales")
	require.True(t, ok)
	assert.Equal(t, "motivational", p.Preferences["tone"])
	p.Goals[0] = "changed"
	p.Preferences["tone"] = "changed"

	again, _ := Builtin("VP of Sales")
	assert.Equal(t, "Achieve quarterly revenue targets", again.Goals[0])
	assert.Equal(t, "motivational", again.Preferences["tone"])

	_, ok = Builtin("nobody")
	assert.False(t, ok)

	r, err := Resolve("Chief Financial Officer")
	require.NoError(t, err)
	assert.Equal(t, "Persona(Chief Financial Officer)", r.String())
}
