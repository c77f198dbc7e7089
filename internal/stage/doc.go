// Package stage defines the value types shared between the workflow engine
// and capability roles: the tri-state stage result, the invoker contract, and
// the payload keys recovery and synthesis code interprets.
package stage
