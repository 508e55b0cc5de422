package audit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendBoundsAt1000(t *testing.T) {
	var log []Record
	for i := 0; i < 1500; i++ {
		log = Append(log, ActionEntryUsed, int64(i))
	}
	require.Len(t, log, MaxRecords)

	tail := Tail(log, 2000)
	require.Len(t, tail, MaxRecords)
	require.Equal(t, int64(1499), tail[0].Timestamp, "newest first")
	require.Equal(t, int64(500), tail[len(tail)-1].Timestamp)
}

func TestTailNewestFirst(t *testing.T) {
	var log []Record
	log = Append(log, "a", 1)
	log = Append(log, "b", 2)
	log = Append(log, "c", 3)

	tail := Tail(log, 2)
	require.Equal(t, []Record{{"c", 3}, {"b", 2}}, tail)
}

func TestTailZeroOrEmpty(t *testing.T) {
	require.Nil(t, Tail(nil, 5))
	require.Nil(t, Tail([]Record{{"a", 1}}, 0))
}
