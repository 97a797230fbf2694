// Package wire implements the OSPFv2 (RFC 2328) and OSPFv3 (RFC 5340) packet
// and LSA wire formats: packet headers, Hello/Database-Description/
// LS-Request/LS-Update/LS-Ack bodies, LSA headers and per-type LSA bodies,
// the Fletcher checksum, and the instance-comparison rule used to decide
// which of two copies of an LSA is newer.
package wire
