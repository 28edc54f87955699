package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_METER        = "meter"
	ACTOR_ID_POLLER       = "poller"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type ActorRef actor.PID

type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

// ReadingInfo is a copy of a reading taken inside the meter actor. It is
// safe to pass between actors.
type ReadingInfo struct {
	Key    string
	Name   string
	Tag    string
	Phase  int
	Metric string
	Unit   string
	Value  string
}

type MeterInfo struct {
	Host     string
	Name     string
	Phases   int
	Readings []ReadingInfo
}

// ReadingsRefresh is the outcome of refreshing every reading once.
type ReadingsRefresh struct {
	Readings []ReadingInfo
	Updated  int
	Failed   int
}

type GetMeterInfoRequest struct {
	ActorRequestMixIn
}

type GetMeterInfoResponse struct {
	ActorResponseMixIn
	Meter *MeterInfo
}

type RefreshReadingsRequest struct {
	ActorRequestMixIn
}

type RefreshReadingsResponse struct {
	ActorResponseMixIn
	Readings []ReadingInfo
	Updated  int
	Failed   int
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
