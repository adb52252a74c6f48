package main

import (
	"testing"
	"time"
)

func TestLoopPacketRanges(t *testing.T) {
	emu := NewWeatherEmulator(1)
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 1000; i++ {
		p := emu.LoopPacket(start.Add(time.Duration(i) * time.Minute))
		if p["usUnits"] != 1 {
			t.Fatalf("usUnits = %v", p["usUnits"])
		}
		if h := p["outHumidity"].(float64); h < 10 || h > 99 {
			t.Errorf("humidity %v out of range", h)
		}
		if d := p["windDir"].(float64); d < 0 || d > 360 {
			t.Errorf("wind direction %v out of range", d)
		}
		if p["windGust"].(float64) < p["windSpeed"].(float64) {
			t.Errorf("gust %v below speed %v", p["windGust"], p["windSpeed"])
		}
	}
}

func TestArchiveRecord(t *testing.T) {
	emu := NewWeatherEmulator(1)
	rec := emu.ArchiveRecord(time.Unix(1714564800, 0), 5*time.Minute, true)
	if rec["type"] != "archive" || rec["interval"] != 5 || rec["rxCheckPercent"] != 0.0 {
		t.Errorf("record = %v", rec)
	}
}
