// Package cameraman turns noisy per-frame player and ball detections into a
// smoothed horizontal camera target and a framing curve.
//
// Responsibilities: bounded position history, lateral speed estimation,
// the focus slider filter, clamped target synthesis and the transfer
// curve from target X to (vertical offset, field of view).
// Key types: Engine, History, TransferMapper, DebugInfo.
//
// An Engine is owned by exactly one camera feed and is not safe for
// concurrent use. Tuning comes from a ParamSource which may be shared.
package cameraman
