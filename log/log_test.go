// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContextFollowsDefault(t *testing.T) {
	// created before the default is installed
	l := WithContext("pkg", "staker")

	var buf bytes.Buffer
	var level slog.LevelVar
	level.Set(LevelInfo)
	SetDefault(JSONHandler(&buf), &level)

	l.Debug("hidden")
	l.Info("joined", "validator", "0x01", "bond", uint64(20))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)

	var rec map[string]any
	assert.Nil(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "staker", rec["pkg"])
	assert.Equal(t, "0x01", rec["validator"])
	assert.Equal(t, "joined", rec["msg"])

	buf.Reset()
	level.Set(LevelDebug)
	l.With("session", 3).Debug("visible")
	assert.Contains(t, buf.String(), `"session":3`)
	assert.True(t, l.Enabled(LevelDebug))
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"trace", "debug", "info", "warn", "error", "crit"} {
		lvl, ok := ParseLevel(name)
		assert.True(t, ok)
		assert.Equal(t, name, LevelName(lvl))
	}
	_, ok := ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, LevelInfo, FromLegacyLevel(LegacyLevelInfo))
}
