package ethtoolnl

var featureSynonyms = map[string]string{
	"tx-tcp-segmentation":        "tso",
	"tx-generic-segmentation":    "gso",
	"rx-gro":                     "gro",
	"rx-lro":                     "lro",
	"rx-checksum":                "rx-csum",
	"tx-checksum-ip-generic":     "tx-csum",
	"tx-checksum-ipv4":           "tx-csum-ipv4",
	"tx-checksum-ipv6":           "tx-csum-ipv6",
	"tx-scatter-gather":          "sg",
	"tx-scatter-gather-fraglist": "sg-frag",
	"tx-vlan-hw-insert":          "tx-vlan",
	"rx-vlan-hw-parse":           "rx-vlan",
	"highdma":                    "highdma",
	"rx-hashing":                 "rxhash",
	"rx-ntuple-filter":           "ntuple",
}

// CanonicalFeature maps a kernel feature string to its short name. Names
// without a synonym pass through unchanged.
func CanonicalFeature(name string) string {
	if short, ok := featureSynonyms[name]; ok {
		return short
	}
	return name
}
