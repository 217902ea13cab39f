// Package connectors provides remote source listers and the factory that
// builds one for a tenant. Each lister enumerates document metadata and
// fetches raw content; it never interprets content or touches storage.
package connectors
