package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testActor() Actor {
	return Actor{
		UserID:    "8f5b7f2e-4f2c-4d9f-9f63-1a2b3c4d5e6f",
		Email:     "admin@example.org",
		IPAddress: "192.168.1.10",
		UserAgent: "test-agent",
	}
}

func TestRecordDeliversToAllSinks(t *testing.T) {
	logger := New(zerolog.Nop())

	var first, second []Entry
	logger.AddSink(func(e Entry) error { first = append(first, e); return nil })
	logger.AddSink(func(e Entry) error { second = append(second, e); return nil })

	entry := CommunityEntry(VerbCreate, "c-1", testActor(), true, "", map[string]string{"slug": "matawai"})
	logger.Record(entry)
	logger.Record(UserEntry(VerbDelete, "u-1", testActor(), false, "cross-community access", nil))

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	require.Equal(t, "community.create", first[0].Action)
	require.Equal(t, "user.delete", first[1].Action)
	require.False(t, first[1].Success)
	require.Equal(t, "cross-community access", first[1].Reason)
}

func TestRecordSinkFailureIsolated(t *testing.T) {
	var buf bytes.Buffer
	logger := New(zerolog.New(&buf))

	var delivered []Entry
	logger.AddSink(func(Entry) error { return errors.New("pipe broken") })
	logger.AddSink(func(Entry) error { panic("sink exploded") })
	logger.AddSink(func(e Entry) error { delivered = append(delivered, e); return nil })

	require.NotPanics(t, func() {
		logger.Record(UserEntry(VerbView, "u-2", testActor(), true, "", nil))
	})

	// The healthy sink still received the entry, and both failures were
	// reported to the fallback channel.
	require.Len(t, delivered, 1)
	require.Contains(t, buf.String(), "audit sink failed")
	require.Contains(t, buf.String(), "pipe broken")
	require.Contains(t, buf.String(), "sink exploded")
}

func TestEntryTimestampAtConstruction(t *testing.T) {
	before := time.Now().UTC()
	entry := CommunityEntry(VerbUpdate, "c-2", testActor(), true, "", nil)
	after := time.Now().UTC()

	require.False(t, entry.Timestamp.Before(before))
	require.False(t, entry.Timestamp.After(after))

	// Delivery later must not reassign the timestamp.
	logger := New(zerolog.Nop())
	var got Entry
	logger.AddSink(func(e Entry) error { got = e; return nil })
	time.Sleep(5 * time.Millisecond)
	logger.Record(entry)
	require.Equal(t, entry.Timestamp, got.Timestamp)
}

func TestEntryImmutableAcrossSinks(t *testing.T) {
	logger := New(zerolog.Nop())

	logger.AddSink(func(e Entry) error {
		e.Details["slug"] = "tampered"
		return nil
	})
	var got Entry
	logger.AddSink(func(e Entry) error { got = e; return nil })

	source := map[string]string{"slug": "matawai"}
	entry := CommunityEntry(VerbCreate, "c-3", testActor(), true, "", source)
	logger.Record(entry)

	require.Equal(t, "matawai", got.Details["slug"])
	// The caller's map was copied at construction time too.
	source["slug"] = "mutated"
	require.Equal(t, "matawai", entry.Details["slug"])
}

func TestZerologSink(t *testing.T) {
	var buf bytes.Buffer
	sink := ZerologSink(zerolog.New(&buf))

	require.NoError(t, sink(UserEntry(VerbCreate, "u-3", testActor(), true, "", map[string]string{"role": "editor"})))

	var wrapper map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &wrapper))
	auditData, ok := wrapper["audit"]
	require.True(t, ok, "no audit field in: %s", buf.String())

	var logged Entry
	require.NoError(t, json.Unmarshal(auditData, &logged))
	require.Equal(t, "user.create", logged.Action)
	require.Equal(t, "admin@example.org", logged.AdminEmail)
	require.Equal(t, "editor", logged.Details["role"])
	require.False(t, logged.Timestamp.IsZero())
}

func TestAuthEntryVocabulary(t *testing.T) {
	failed := AuthEntry(VerbLogin, Actor{IPAddress: "10.0.0.9", UserAgent: "test-agent"}, false, "invalid credentials", map[string]string{"email": "who@example.org"})
	require.Equal(t, "auth.login", failed.Action)
	require.Equal(t, ResourceAuth, failed.Resource)
	require.Empty(t, failed.ResourceID)
	require.Empty(t, failed.AdminUserID)
	require.False(t, failed.Success)
	require.Equal(t, "invalid credentials", failed.Reason)
	require.Equal(t, "who@example.org", failed.Details["email"])

	out := AuthEntry(VerbLogout, testActor(), true, "", nil)
	require.Equal(t, "auth.logout", out.Action)
	require.Equal(t, "admin@example.org", out.AdminEmail)
	require.True(t, out.Success)
}
