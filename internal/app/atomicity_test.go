package app

import (
	"bytes"
	"testing"

	"onchainlottery/internal/lottery"
)

// Every rejected tx must leave the committed state byte-for-byte unchanged.
func TestAtomicity_RejectedTxsDoNotChangeAppHash(t *testing.T) {
	a, id := setupLottery(t, "alice", "bob")
	blk := testBlock(2)
	mustOk(t, a.deliverTx(enterTx(t, id, "alice", stake(1)), blk))

	rejected := map[string][]byte{
		"low stake":        enterTx(t, id, "bob", lottery.DefaultMinStake.SubRaw(1)),
		"underfunded":      enterTx(t, id, "bob", stake(1000)),
		"unknown lottery":  enterTx(t, id+1, "bob", stake(1)),
		"non-manager draw": pickWinnerTx(t, id, "alice"),
		"unregistered":     enterTx(t, id, "carol", stake(1)),
	}
	for name, tx := range rejected {
		before := a.st.AppHash()
		if res := a.deliverTx(tx, blk); res.Code == 0 {
			t.Fatalf("%s: expected rejection", name)
		}
		if !bytes.Equal(before, a.st.AppHash()) {
			t.Fatalf("%s: rejected tx changed state", name)
		}
	}
}

func TestAtomicity_DrawDoesNotLeakIntoOtherLotteries(t *testing.T) {
	a, first := setupLottery(t, "alice", "bob")
	blk := testBlock(2)
	second := createTestLottery(t, a, blk, "manager")

	mustOk(t, a.deliverTx(enterTx(t, first, "alice", stake(1)), blk))
	mustOk(t, a.deliverTx(enterTx(t, second, "bob", stake(2)), blk))
	mustOk(t, a.deliverTx(pickWinnerTx(t, first, "manager"), blk))

	if got := queryPlayers(t, a, second); len(got) != 1 || got[0] != "bob" {
		t.Fatalf("second lottery players=%v", got)
	}
	if !queryPool(t, a, second).Equal(stake(2)) {
		t.Fatalf("second lottery pool=%s", queryPool(t, a, second))
	}
}
