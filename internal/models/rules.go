package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// RuleSet is the closed set of selection rules. All rules are filters with
// cumulative AND semantics. Unknown keys in stored or submitted rule payloads
// are ignored on decode; only the fields named here ever take effect.
type RuleSet struct {
	FilterByTeam           bool                 `bson:"filterByTeam,omitempty" json:"filter_by_team,omitempty"`
	TeamIDs                []primitive.ObjectID `bson:"teamIds,omitempty" json:"team_ids,omitempty"`
	FilterByDepartment     bool                 `bson:"filterByDepartment,omitempty" json:"filter_by_department,omitempty"`
	DepartmentIDs          []primitive.ObjectID `bson:"departmentIds,omitempty" json:"department_ids,omitempty"`
	NoRepeatPrize          bool                 `bson:"noRepeatPrize,omitempty" json:"no_repeat_prize,omitempty"`
	NoDuplicateParticipant bool                 `bson:"noDuplicateParticipant,omitempty" json:"no_duplicate_participant,omitempty"`
	NoDuplicateDepartment  bool                 `bson:"noDuplicateDepartment,omitempty" json:"no_duplicate_department,omitempty"`
}

// Merge layers override on top of r. Rules are filters, so booleans combine
// with OR; id lists from the override win when present.
func (r RuleSet) Merge(override RuleSet) RuleSet {
	merged := RuleSet{
		FilterByTeam:           r.FilterByTeam || override.FilterByTeam,
		FilterByDepartment:     r.FilterByDepartment || override.FilterByDepartment,
		NoRepeatPrize:          r.NoRepeatPrize || override.NoRepeatPrize,
		NoDuplicateParticipant: r.NoDuplicateParticipant || override.NoDuplicateParticipant,
		NoDuplicateDepartment:  r.NoDuplicateDepartment || override.NoDuplicateDepartment,
		TeamIDs:                r.TeamIDs,
		DepartmentIDs:          r.DepartmentIDs,
	}
	if len(override.TeamIDs) > 0 {
		merged.TeamIDs = override.TeamIDs
	}
	if len(override.DepartmentIDs) > 0 {
		merged.DepartmentIDs = override.DepartmentIDs
	}
	return merged
}

// RuleSnapshot records the resolved rule booleans a selection actually
// applied. It is persisted verbatim in the raffle log for audit replay.
type RuleSnapshot struct {
	NoDuplicateParticipant bool `bson:"noDuplicateParticipant" json:"no_duplicate_participant"`
	NoDuplicateDepartment  bool `bson:"noDuplicateDepartment" json:"no_duplicate_department"`
	FilterByTeam           bool `bson:"filterByTeam" json:"filter_by_team"`
	FilterByDepartment     bool `bson:"filterByDepartment" json:"filter_by_department"`
	NoRepeatPrize          bool `bson:"noRepeatPrize" json:"no_repeat_prize"`
}

// ExclusionApplies reports whether any prior-winner exclusion flag is in
// effect. NoRepeatPrize and NoDuplicateParticipant act as one OR-combined
// flag.
func (s RuleSnapshot) ExclusionApplies() bool {
	return s.NoRepeatPrize || s.NoDuplicateParticipant
}
