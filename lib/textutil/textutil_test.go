package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanCell(t *testing.T) {
	require.Equal(t, "Operating Systems", CleanCell("  Operating\n\tSystems "))
	require.Equal(t, "CST-301", CleanCell(" CST-301​"))
	require.Equal(t, "", CleanCell(" \n\t "))
}

func TestNormalizeLabel(t *testing.T) {
	require.Equal(t, "dateofbirth", NormalizeLabel("Date of Birth :"))
	require.Equal(t, "uid", NormalizeLabel("  UID\n"))
	require.Equal(t, "name", NormalizeLabel("Name"))
}
