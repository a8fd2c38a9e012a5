// Package musicapi implements the generation.Client and
// generation.StatusClient interfaces against the music generation
// provider's REST API. It owns the wire format: the request payload, the
// {code, msg, data} response envelope, and the normalization of the
// provider's task statuses into the coarse states the orchestrator
// understands.
package musicapi
