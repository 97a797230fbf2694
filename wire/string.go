package wire

import "strconv"

func (s FloodingScope) String() string {
	switch s {
	case LinkScoping:
		return "LinkScoping"
	case AreaScoping:
		return "AreaScoping"
	case ASScoping:
		return "ASScoping"
	default:
		return "FloodingScope(" + strconv.FormatUint(uint64(s), 10) + ")"
	}
}

func (t LSType) String() string {
	switch t {
	case RouterLSA:
		return "RouterLSA"
	case NetworkLSA:
		return "NetworkLSA"
	case InterAreaPrefixLSA:
		return "InterAreaPrefixLSA"
	case InterAreaRouterLSA:
		return "InterAreaRouterLSA"
	case ASExternalLSA:
		return "ASExternalLSA"
	case groupMembershipLSA:
		return "GroupMembershipLSA"
	case NSSALSA:
		return "NSSALSA"
	case LinkLSA:
		return "LinkLSA"
	case IntraAreaPrefixLSA:
		return "IntraAreaPrefixLSA"
	case RouterLSAv2:
		return "RouterLSAv2"
	case NetworkLSAv2:
		return "NetworkLSAv2"
	case SummaryNetworkLSAv2:
		return "SummaryNetworkLSAv2"
	case SummaryASBRLSAv2:
		return "SummaryASBRLSAv2"
	case ASExternalLSAv2:
		return "ASExternalLSAv2"
	case GroupMembershipLSAv2:
		return "GroupMembershipLSAv2"
	case NSSALSAv2:
		return "NSSALSAv2"
	case OpaqueLinkLSAv2:
		return "OpaqueLinkLSAv2"
	case OpaqueAreaLSAv2:
		return "OpaqueAreaLSAv2"
	case OpaqueASLSAv2:
		return "OpaqueASLSAv2"
	default:
		return "LSType(" + strconv.FormatUint(uint64(t), 10) + ")"
	}
}
