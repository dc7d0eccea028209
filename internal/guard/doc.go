// Package guard is the frequency/suppression policy consulted before every
// campaign send.
//
// The guard is read-only: it decides from opt-outs and prior delivery
// outcomes whether a recipient may be contacted in a category right now.
// The outcome written after a send is what moves future evaluations; the
// guard itself never writes.
package guard
