package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadManifest(t *testing.T) {
	path := writeFile(t, "scans.csv", "id,bold,mask,confounds,wm_mask,csf_mask\n"+
		"sub-01,bold1.nii.gz,brain.nii.gz,conf1.csv,wm.nii.gz,csf.nii.gz\n"+
		"sub-02,bold2.nii.gz,brain.nii.gz,,,\n")

	rows, err := readManifest(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "sub-01", rows[0].ID)
	assert.Equal(t, "csf.nii.gz", rows[0].CSFMask)
	assert.Empty(t, rows[1].Confounds)
}

func TestReadManifest_MissingRequired(t *testing.T) {
	path := writeFile(t, "scans.csv", "id,bold,mask\nsub-01,,brain.nii.gz\n")
	_, err := readManifest(path)
	assert.Error(t, err)
}

func TestLoadScan_MissingImage(t *testing.T) {
	_, err := loadScan(&manifestRow{ID: "x", Bold: "missing.nii.gz", Mask: "missing-mask.nii.gz"})
	assert.Error(t, err)
}
