package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestEncodeFields(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	data, err := Encode(GameCompleted{GameID: "g", Owner: "o", Difficulty: "hard", Moves: 9, Elapsed: 41, NewBest: true, At: at})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["gameId"] != "g" || m["moves"] != float64(9) || m["newBest"] != true || m["at"] != "2026-02-03T04:05:06Z" {
		t.Fatalf("unexpected payload %s", data)
	}
}

func TestEncodeStampsTime(t *testing.T) {
	data, err := Encode(GameCompleted{GameID: "g"})
	if err != nil {
		t.Fatal(err)
	}
	var ev GameCompleted
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.At.IsZero() {
		t.Fatal("At not set")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishCompleted(context.Background(), GameCompleted{}); err != nil {
		t.Fatal(err)
	}
	p.Close()
}
