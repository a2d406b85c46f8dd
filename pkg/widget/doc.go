// Package widget mirrors gany models to a rendering peer.
//
// A Manager assigns every model a widget id, sends an "open" message with
// its full state the first time the model is displayed, and an "update"
// message with the changed attributes whenever a setter runs afterwards.
// Widget references inside a state are written as "IPY_MODEL_<id>" and
// referenced models are always opened before the models pointing at them.
//
// Binary payloads (encoded arrays, image bytes) are lifted out of the
// JSON state into separate buffers, with BufferPaths recording where each
// buffer belongs.
//
// Changes made inside Manager.Hold are coalesced and delivered as a single
// Transport.Send call, so the peer never observes a half-updated mesh.
//
// The Manager is not safe for concurrent use.
package widget
