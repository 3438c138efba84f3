package attach

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for _, n := range []int{0, 1, 2, 3, 100, 4096} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(rnd.Intn(256))
		}
		decoded, err := Decode(Encode(data))
		require.NoError(t, err)
		if !bytes.Equal(data, decoded) {
			t.Fatalf("round trip mismatch at size %d", n)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode("not base64 !!!")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDataURI(t *testing.T) {
	enc := Encode([]byte("hello"))
	assert.Equal(t, "data:text/plain;base64,"+enc, DataURI("text/plain", enc))
}
