// Package metadata publishes a DAO's off-chain metadata to the content
// store and returns the root CID embedded in the deployment transaction.
package metadata

// Link is a DAG-JSON reference to another stored document: a map with the
// single key "/" whose value is the string-encoded CID.
type Link struct {
	CID string `json:"/"`
}

// Module is one executable unit bundled into the DAO's metadata: the JS
// that loads the module, and the WASM payload of the module itself.
type Module struct {
	Name   string
	Loader []byte
	Wasm   []byte
}

// moduleNode is the per-module metadata document. Loader and module
// references are arrays of one link, matching the published wire format.
type moduleNode struct {
	Loader []Link `json:"loader"`
	Module []Link `json:"module"`
}

// Idea is the root metadata document attached to a DAO. Payload entries
// reference the per-module nodes.
type Idea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Payload     []Link `json:"payload"`
}
