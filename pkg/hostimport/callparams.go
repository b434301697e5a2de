package hostimport

import (
	"github.com/google/uuid"

	"github.com/fluencelabs/marine-sub002/pkg/ittype"
)

// CallParametersRecordID is the well-known record id the
// get_call_parameters standard import returns, registered by every
// Service at construction time so it never collides with a module's
// own record ids (modules are expected to start theirs above this
// reserved range, mirroring how original_source/core/src/host_imports/mod.rs
// reserves a fixed record id for this exact purpose).
const CallParametersRecordID uint64 = 0

// CallParameters is the per-call context injected into any module
// that imports get_call_parameters: identity of the caller, the
// current particle, and free-form service metadata. It lives for
// exactly one top-level Service.Call, shared unchanged across every
// nested cross-module call that call triggers.
type CallParameters struct {
	CallID               string
	ParticleID           string
	InitPeerID           string
	ServiceID            string
	ServiceCreatorPeerID string
	HostID               string
	Timestamp            int64
	TTL                  uint32
	UserName             string
	ApplicationID        string
}

// NewCallID returns a fresh call identifier for callers that do not
// supply their own.
func NewCallID() string { return uuid.NewString() }

// CallParametersSchema is the RecordSchema registered under
// CallParametersRecordID.
func CallParametersSchema() ittype.RecordSchema {
	return ittype.RecordSchema{
		Name: "CallParameters",
		Fields: []ittype.RecordField{
			{Name: "call_id", Type: ittype.String{}},
			{Name: "particle_id", Type: ittype.String{}},
			{Name: "init_peer_id", Type: ittype.String{}},
			{Name: "service_id", Type: ittype.String{}},
			{Name: "service_creator_peer_id", Type: ittype.String{}},
			{Name: "host_id", Type: ittype.String{}},
			{Name: "timestamp", Type: ittype.S64{}},
			{Name: "ttl", Type: ittype.U32{}},
			{Name: "user_name", Type: ittype.String{}},
			{Name: "application_id", Type: ittype.String{}},
		},
	}
}

// ToRecordValue converts cp into the IValue shape returned across the
// lift/lower boundary to a guest calling get_call_parameters.
func (cp CallParameters) ToRecordValue() ittype.RecordValue {
	return ittype.RecordValue{
		ID: CallParametersRecordID,
		Fields: []ittype.IValue{
			ittype.StringValue{V: cp.CallID},
			ittype.StringValue{V: cp.ParticleID},
			ittype.StringValue{V: cp.InitPeerID},
			ittype.StringValue{V: cp.ServiceID},
			ittype.StringValue{V: cp.ServiceCreatorPeerID},
			ittype.StringValue{V: cp.HostID},
			ittype.S64Value{V: cp.Timestamp},
			ittype.U32Value{V: cp.TTL},
			ittype.StringValue{V: cp.UserName},
			ittype.StringValue{V: cp.ApplicationID},
		},
	}
}

// CallParametersFromRecord converts a RecordValue of the
// CallParameters shape back into a typed CallParameters, used by S6-style
// tests that round-trip a call's parameters through a guest export.
func CallParametersFromRecord(rv ittype.RecordValue) (CallParameters, error) {
	if len(rv.Fields) != 10 {
		return CallParameters{}, ErrMalformedCallParameters
	}
	str := func(i int) (string, bool) { v, ok := rv.Fields[i].(ittype.StringValue); return v.V, ok }
	c1, ok1 := str(0)
	c2, ok2 := str(1)
	c3, ok3 := str(2)
	c4, ok4 := str(3)
	c5, ok5 := str(4)
	c6, ok6 := str(5)
	ts, okTS := rv.Fields[6].(ittype.S64Value)
	ttl, okTTL := rv.Fields[7].(ittype.U32Value)
	c9, ok9 := str(8)
	c10, ok10 := str(9)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && okTS && okTTL && ok9 && ok10) {
		return CallParameters{}, ErrMalformedCallParameters
	}
	return CallParameters{
		CallID:               c1,
		ParticleID:           c2,
		InitPeerID:           c3,
		ServiceID:            c4,
		ServiceCreatorPeerID: c5,
		HostID:               c6,
		Timestamp:            ts.V,
		TTL:                  ttl.V,
		UserName:             c9,
		ApplicationID:        c10,
	}, nil
}
