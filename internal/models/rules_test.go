package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRuleSetMerge(t *testing.T) {
	baseTeams := []primitive.ObjectID{primitive.NewObjectID()}
	overrideTeams := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}

	base := RuleSet{
		FilterByTeam:  true,
		TeamIDs:       baseTeams,
		NoRepeatPrize: true,
	}
	override := RuleSet{
		TeamIDs:                overrideTeams,
		NoDuplicateParticipant: true,
	}

	merged := base.Merge(override)

	if !merged.FilterByTeam || !merged.NoRepeatPrize || !merged.NoDuplicateParticipant {
		t.Fatalf("boolean flags did not OR-combine: %+v", merged)
	}
	if len(merged.TeamIDs) != 2 || merged.TeamIDs[0] != overrideTeams[0] {
		t.Fatalf("override team list did not win: %+v", merged.TeamIDs)
	}

	// Without an override list, the base list survives.
	kept := base.Merge(RuleSet{NoDuplicateDepartment: true})
	if len(kept.TeamIDs) != 1 || kept.TeamIDs[0] != baseTeams[0] {
		t.Fatalf("base team list lost: %+v", kept.TeamIDs)
	}
	if !kept.NoDuplicateDepartment {
		t.Fatal("override flag lost")
	}
}

func TestRuleSetIgnoresUnknownKeys(t *testing.T) {
	payload := []byte(`{"no_repeat_prize": true, "surprise_rule": "whatever"}`)

	var rules RuleSet
	if err := json.Unmarshal(payload, &rules); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !rules.NoRepeatPrize {
		t.Fatal("known key not decoded")
	}
}

func TestRuleSnapshotExclusionApplies(t *testing.T) {
	cases := []struct {
		name     string
		snapshot RuleSnapshot
		want     bool
	}{
		{"none", RuleSnapshot{}, false},
		{"noRepeatPrize", RuleSnapshot{NoRepeatPrize: true}, true},
		{"noDuplicateParticipant", RuleSnapshot{NoDuplicateParticipant: true}, true},
		{"departmentOnly", RuleSnapshot{NoDuplicateDepartment: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.snapshot.ExclusionApplies(); got != tc.want {
				t.Fatalf("ExclusionApplies() = %v, want %v", got, tc.want)
			}
		})
	}
}
