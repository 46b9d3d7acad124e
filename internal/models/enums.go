package models

import (
	"strings"
	"unicode"
)

// AssetState is the lifecycle state of an asset
type AssetState string

const (
	AssetStateAvailable           AssetState = "Available"
	AssetStateAssigned            AssetState = "Assigned"
	AssetStateNotAvailable        AssetState = "NotAvailable"
	AssetStateWaitingForRecycling AssetState = "WaitingForRecycling"
	AssetStateRecycled            AssetState = "Recycled"
)

var AssetStates = []AssetState{
	AssetStateAvailable,
	AssetStateAssigned,
	AssetStateNotAvailable,
	AssetStateWaitingForRecycling,
	AssetStateRecycled,
}

// ParseAssetState converts external text into an AssetState
func ParseAssetState(s string) (AssetState, bool) {
	return parseEnum(s, AssetStates)
}

func (s AssetState) Label() string {
	switch s {
	case AssetStateNotAvailable:
		return "Not available"
	case AssetStateWaitingForRecycling:
		return "Waiting for recycling"
	default:
		return string(s)
	}
}

// Location is the office a user or asset belongs to
type Location string

const (
	LocationHCM Location = "HCM"
	LocationDN  Location = "DN"
	LocationHN  Location = "HN"
)

var Locations = []Location{LocationHCM, LocationDN, LocationHN}

func ParseLocation(s string) (Location, bool) {
	return parseEnum(s, Locations)
}

// UserType is the role of a user
type UserType string

const (
	UserTypeAdmin UserType = "Admin"
	UserTypeStaff UserType = "Staff"
)

var UserTypes = []UserType{UserTypeAdmin, UserTypeStaff}

func ParseUserType(s string) (UserType, bool) {
	return parseEnum(s, UserTypes)
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

var Genders = []Gender{GenderMale, GenderFemale}

func ParseGender(s string) (Gender, bool) {
	return parseEnum(s, Genders)
}

// AssignmentState is the lifecycle state of an assignment
type AssignmentState string

const (
	AssignmentStateWaitingForAcceptance AssignmentState = "WaitingForAcceptance"
	AssignmentStateAccepted             AssignmentState = "Accepted"
	AssignmentStateDeclined             AssignmentState = "Declined"
	AssignmentStateWaitingForReturning  AssignmentState = "WaitingForReturning"
	AssignmentStateReturned             AssignmentState = "Returned"
)

var AssignmentStates = []AssignmentState{
	AssignmentStateWaitingForAcceptance,
	AssignmentStateAccepted,
	AssignmentStateDeclined,
	AssignmentStateWaitingForReturning,
	AssignmentStateReturned,
}

func ParseAssignmentState(s string) (AssignmentState, bool) {
	return parseEnum(s, AssignmentStates)
}

func (s AssignmentState) Label() string {
	switch s {
	case AssignmentStateWaitingForAcceptance:
		return "Waiting for acceptance"
	case AssignmentStateWaitingForReturning:
		return "Waiting for returning"
	default:
		return string(s)
	}
}

// ReturnRequestState is the lifecycle state of a return request
type ReturnRequestState string

const (
	ReturnRequestStateWaitingForReturning ReturnRequestState = "WaitingForReturning"
	ReturnRequestStateCompleted           ReturnRequestState = "Completed"
)

var ReturnRequestStates = []ReturnRequestState{
	ReturnRequestStateWaitingForReturning,
	ReturnRequestStateCompleted,
}

func ParseReturnRequestState(s string) (ReturnRequestState, bool) {
	return parseEnum(s, ReturnRequestStates)
}

func (s ReturnRequestState) Label() string {
	if s == ReturnRequestStateWaitingForReturning {
		return "Waiting for returning"
	}
	return string(s)
}

// parseEnum matches s against values ignoring case, spaces, underscores and dashes,
// so "Not available", "not_available" and "NotAvailable" are the same token
func parseEnum[T ~string](s string, values []T) (T, bool) {
	key := enumKey(s)
	if key == "" {
		var zero T
		return zero, false
	}
	for _, v := range values {
		if enumKey(string(v)) == key {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func enumKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Strings converts a typed enum slice into plain strings for SQL parameters
func Strings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
