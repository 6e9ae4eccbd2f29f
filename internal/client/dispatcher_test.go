package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_LinkRejectsDuplicateCorrelationID(t *testing.T) {
	d := newDispatcher()
	_, err := d.link(1)
	require.NoError(t, err)

	_, err = d.link(1)
	require.Error(t, err)
	var invalidErr *ErrInvalidCorrelationID
	require.ErrorAs(t, err, &invalidErr)
}

func TestDispatcher_DeliverRoutesToLinkedSlotAndRemovesIt(t *testing.T) {
	d := newDispatcher()
	ch, err := d.link(1)
	require.NoError(t, err)

	d.deliver(1, []byte(`{"ok":true}`), nil)
	result := <-ch
	require.Equal(t, []byte(`{"ok":true}`), result.payload)

	// the slot was removed by deliver, so linking the same id again succeeds.
	_, err = d.link(1)
	require.NoError(t, err)
}

func TestDispatcher_DeliverToUnknownCorrelationIDReturnsInvalidCorrelationID(t *testing.T) {
	d := newDispatcher()
	err := d.deliver(99, []byte("x"), nil)
	require.Error(t, err)
	var invalidErr *ErrInvalidCorrelationID
	require.ErrorAs(t, err, &invalidErr)
	require.Equal(t, uint64(99), invalidErr.CorrelationID)
}

func TestDispatcher_ProduceSlotsAreSeparateFromGenericSlots(t *testing.T) {
	d := newDispatcher()
	genCh, err := d.link(1)
	require.NoError(t, err)
	prodCh, err := d.linkProduce(1)
	require.NoError(t, err)

	d.deliver(1, []byte("generic-first"), nil)
	select {
	case r := <-genCh:
		require.Equal(t, []byte("generic-first"), r.payload)
	default:
		t.Fatal("expected generic channel to receive first delivery")
	}

	d.deliver(1, []byte("produce-next"), nil)
	select {
	case r := <-prodCh:
		require.Equal(t, []byte("produce-next"), r.payload)
	default:
		t.Fatal("expected produce channel to receive second delivery")
	}
}

func TestDispatcher_CloseAllReleasesEveryPendingSlot(t *testing.T) {
	d := newDispatcher()
	genCh, err := d.link(1)
	require.NoError(t, err)
	prodCh, err := d.linkProduce(2)
	require.NoError(t, err)

	closeErr := errors.New("connection closed")
	d.closeAll(closeErr)

	genResult := <-genCh
	require.Equal(t, closeErr, genResult.err)
	prodResult := <-prodCh
	require.Equal(t, closeErr, prodResult.err)
}
