// Package oscjson wraps the JSON codec used to encode the OSC Query HTTP
// responses. It exists so the encoder can be swapped independently of the
// serialization logic in the oscquery package, the same separation antfly's
// libaf/json package keeps between "what to encode" and "how fast to encode
// it".
package oscjson

import "github.com/bytedance/sonic"

// Marshal encodes v as compact JSON using sonic's fast-path encoder. The OSC
// Query HTTP endpoint is read-heavy (VR clients poll HOST_INFO and whole
// subtrees on every avatar parameter change), so encode cost is on the hot
// path.
func Marshal(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}
