package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"metcm_relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBulletinFile(t *testing.T, header []string, zones int) string {
	t.Helper()
	lines := append([]string{}, header...)
	for i := 0; i < zones; i++ {
		lines = append(lines, fmt.Sprintf("%02d31000429770972", i))
	}
	path := filepath.Join(t.TempDir(), "bulletin.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestReadBulletinFile(t *testing.T) {
	path := writeBulletinFile(t, []string{"ABC   ", "235467", "12:30Z", "045098"}, models.ZoneCount)

	b, err := readBulletinFile(path, false)
	require.NoError(t, err)
	assert.Equal(t, "ABC   ", b.Header.StationID)
	assert.Equal(t, "12:30Z", b.Header.DateTime)
	assert.Equal(t, "3131000429770972", b.Zones[31])
}

func TestReadBulletinFile_Partial(t *testing.T) {
	path := writeBulletinFile(t, []string{"METCM1", "235467", "191230", "045098"}, 10)

	_, err := readBulletinFile(path, false)
	var fmtErr *models.FormatError
	require.True(t, errors.As(err, &fmtErr))

	b, err := readBulletinFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, 22, b.MissingZones)
	assert.Equal(t, "0931000429770972", b.Zones[9])
}

func TestReadBulletinFile_Invalid(t *testing.T) {
	path := writeBulletinFile(t, []string{"MET", "235467", "191230", "045098"}, models.ZoneCount)

	_, err := readBulletinFile(path, false)
	var valErr *models.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, models.TagStationID, valErr.Field)
}
