package gamification

import (
	"testing"

	"github.com/amazonia-research/academy-backend/internal/models"
)

func TestPointsFor(t *testing.T) {
	tests := []struct {
		kind models.ActivityKind
		want int
	}{
		{models.ActivityLesson, 10},
		{models.ActivityQuiz, 25},
		{models.ActivityModule, 50},
		{models.ActivityCourse, 100},
		{models.ActivityKind("unknown"), 0},
	}

	for _, tt := range tests {
		if got := PointsFor(tt.kind); got != tt.want {
			t.Errorf("PointsFor(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points       int
		wantLevel    int
		wantName     string
		wantToNext   int
	}{
		{0, 1, "Seedling", 100},
		{99, 1, "Seedling", 1},
		{100, 2, "Sprout", 150},
		{249, 2, "Sprout", 1},
		{250, 3, "Sapling", 250},
		{500, 4, "Young Tree", 500},
		{1000, 5, "Canopy Climber", 1000},
		{2000, 6, "Canopy", 1500},
		{3500, 7, "Emergent", 2000},
		{5500, 8, "Old Growth", 2500},
		{8000, 9, "Forest Guardian", 0},
		{123456, 9, "Forest Guardian", 0},
		{-5, 1, "Seedling", 100},
	}

	for _, tt := range tests {
		got := LevelFor(tt.points)
		if got.Level != tt.wantLevel {
			t.Errorf("LevelFor(%d).Level = %d, want %d", tt.points, got.Level, tt.wantLevel)
		}
		if got.Name != tt.wantName {
			t.Errorf("LevelFor(%d).Name = %q, want %q", tt.points, got.Name, tt.wantName)
		}
		if got.PointsToNext != tt.wantToNext {
			t.Errorf("LevelFor(%d).PointsToNext = %d, want %d", tt.points, got.PointsToNext, tt.wantToNext)
		}
	}
}

func TestLevelForMonotonic(t *testing.T) {
	prev := 0
	for points := 0; points <= 10000; points += 10 {
		info := LevelFor(points)
		if info.Level < prev {
			t.Fatalf("level dropped from %d to %d at %d points", prev, info.Level, points)
		}
		if info.Progress < 0 || info.Progress > 1 {
			t.Fatalf("progress %f out of range at %d points", info.Progress, points)
		}
		prev = info.Level
	}
	if prev != MaxLevel {
		t.Errorf("highest observed level = %d, want %d", prev, MaxLevel)
	}
}
