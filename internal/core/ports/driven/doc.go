// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): remote listers, extractors, embedders,
// the vector store and the persistence stores.
package driven
