// Package memory provides in-process implementations of the store interfaces.
// Data lives only as long as the process. It backs local runs with
// database.driver=memory and the service and API tests.
package memory
