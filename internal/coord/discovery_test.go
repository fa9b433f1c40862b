package coord

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnounceFillsIDAndTimestamp(t *testing.T) {
	board := NewDiscoveryBoard()

	entry := board.Announce(DiscoveryEntry{
		Kind:     KindHook,
		Name:     "useAuth",
		FilePath: "src/hooks/useAuth.ts",
		Exports:  []string{"useAuth", "AuthProvider"},
		Agent:    "agent-a",
	})
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.Timestamp.IsZero())
	require.False(t, entry.Verified)
}

func TestFindByExport(t *testing.T) {
	board := NewDiscoveryBoard()
	board.Announce(DiscoveryEntry{
		Kind:     KindHook,
		Name:     "useAuth",
		FilePath: "src/hooks/useAuth.ts",
		Exports:  []string{"useAuth", "AuthProvider"},
		Agent:    "agent-a",
	})

	entry, ok := board.FindByExport("AuthProvider")
	require.True(t, ok)
	require.Equal(t, "src/hooks/useAuth.ts", entry.FilePath)

	_, ok = board.FindByExport("missing")
	require.False(t, ok)
}

func TestFirstAnnouncementWinsExportIndex(t *testing.T) {
	board := NewDiscoveryBoard()
	board.Announce(DiscoveryEntry{Name: "format", FilePath: "src/utils/format.ts", Exports: []string{"format"}, Agent: "agent-a"})
	board.Announce(DiscoveryEntry{Name: "format2", FilePath: "src/other.ts", Exports: []string{"format"}, Agent: "agent-b"})

	entry, ok := board.FindByExport("format")
	require.True(t, ok)
	require.Equal(t, "src/utils/format.ts", entry.FilePath)
}

func TestVerifyIsIdempotent(t *testing.T) {
	board := NewDiscoveryBoard()
	entry := board.Announce(DiscoveryEntry{Name: "x", FilePath: "x.ts", Agent: "agent-a"})

	verified, ok := board.Verify(entry.ID)
	require.True(t, ok)
	require.True(t, verified.Verified)

	verified, ok = board.Verify(entry.ID)
	require.True(t, ok)
	require.True(t, verified.Verified)

	_, ok = board.Verify("no-such-id")
	require.False(t, ok)
}

func TestImportSuggestions(t *testing.T) {
	board := NewDiscoveryBoard()
	board.Announce(DiscoveryEntry{Name: "useAuth", FilePath: "src/hooks/useAuth.ts", Exports: []string{"useAuth"}, Agent: "agent-a"})
	board.Announce(DiscoveryEntry{Name: "Button", FilePath: "src/components/Button.tsx", Exports: []string{"Button"}, Agent: "agent-b"})

	suggestions := board.ImportSuggestions([]string{"useAuth", "Button", "unknown"})
	require.Len(t, suggestions, 2)
	require.Equal(t, "useAuth", suggestions[0].Export)
	require.Equal(t, "src/hooks/useAuth.ts", suggestions[0].FilePath)
	require.Equal(t, "src/components/Button.tsx", suggestions[1].FilePath)
}

func TestFindByKindPreservesOrder(t *testing.T) {
	board := NewDiscoveryBoard()
	board.Announce(DiscoveryEntry{Kind: KindComponent, Name: "A", FilePath: "A.tsx", Agent: "x"})
	board.Announce(DiscoveryEntry{Kind: KindService, Name: "svc", FilePath: "svc.ts", Agent: "x"})
	board.Announce(DiscoveryEntry{Kind: KindComponent, Name: "B", FilePath: "B.tsx", Agent: "x"})

	components := board.FindByKind(KindComponent)
	require.Len(t, components, 2)
	require.Equal(t, "A", components[0].Name)
	require.Equal(t, "B", components[1].Name)
	require.Len(t, board.All(), 3)
}
