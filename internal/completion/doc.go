// Package completion is the client side of the completion collaborator: the
// service that maps a message history and a requested response shape to a
// structured answer.
//
// A Request carries the history, a Schema naming the fields the answer must
// have, and the agent's model and temperature. Every Completer validates the
// raw answer against the Schema before returning it, so callers receive
// either a Result with every field present and correctly typed, or an error
// wrapping ErrMalformedResponse or ErrTransport.
//
// Providers: OpenAI and Anthropic through their SDKs, Gateway for the local
// HTTP service contract, and Scripted for tests and dry runs. Retries are
// opt-in through WithRetry.
package completion
