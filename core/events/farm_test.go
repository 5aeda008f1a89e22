package events

import (
	"math/big"
	"testing"
)

func TestFarmPositionChangedAttributes(t *testing.T) {
	var account [20]byte
	account[19] = 0x11
	evt := FarmPositionChanged{
		Type:      TypeFarmHarvest,
		PoolIndex: 2,
		Account:   account,
		Reward:    big.NewInt(5000),
		NewAmount: big.NewInt(100),
		Timestamp: 1_100,
	}.Event()
	if evt.Type != TypeFarmHarvest || evt.Timestamp != 1_100 {
		t.Fatalf("unexpected event header: %+v", evt)
	}
	want := map[string]string{
		"pool":      "2",
		"account":   "0x0000000000000000000000000000000000000011",
		"amount":    "0",
		"reward":    "5000",
		"newAmount": "100",
	}
	for k, v := range want {
		if got := evt.Attribute(k); got != v {
			t.Fatalf("attribute %s: got %q want %q", k, got, v)
		}
	}
}

func TestFarmPositionChangedOmitsZeroAccount(t *testing.T) {
	evt := FarmPositionChanged{Type: TypeFarmDeposit}.Event()
	if _, ok := evt.Attributes["account"]; ok {
		t.Fatalf("zero account must be omitted")
	}
}

func TestMultiEmitterFansOut(t *testing.T) {
	first, second := &Recorder{}, &Recorder{}
	MultiEmitter{first, nil, second}.Emit(FarmBoosterUpdated{Enabled: true})
	if len(first.Events) != 1 || len(second.Events) != 1 {
		t.Fatalf("expected both recorders to receive the event")
	}
	if got := first.Types(); got[0] != TypeFarmBoosterUpdated {
		t.Fatalf("unexpected type %v", got)
	}
	if (FarmBoosterUpdated{Enabled: true}).Event().Attribute("enabled") != "true" {
		t.Fatalf("expected enabled attribute")
	}
}
