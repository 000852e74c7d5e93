package namesilo

import (
	"strconv"
	"strings"
)

type RecordType string

const (
	TypeA     RecordType = "A"
	TypeAAAA  RecordType = "AAAA"
	TypeCNAME RecordType = "CNAME"
	TypeMX    RecordType = "MX"
	TypeTXT   RecordType = "TXT"
)

// Record is a resource record as held by the registrar.
type Record struct {
	ID       string
	Type     RecordType
	Host     string // fully qualified, e.g. "_acme-challenge.sub.example.com"
	Value    string
	TTL      int
	Distance int
}

// RecordParams are the writable fields of a record. Host is relative to the
// domain ("" for the apex).
type RecordParams struct {
	Type  RecordType
	Host  string
	Value string
	TTL   int
}

// reply is the union of every reply shape the DNS operations return. The
// registrar wraps each scalar in its own element, which encoding/xml collapses
// into plain fields.
type reply struct {
	Code            string           `xml:"code"`
	Detail          string           `xml:"detail"`
	RecordID        string           `xml:"record_id"`
	ResourceRecords []resourceRecord `xml:"resource_record"`
}

type resourceRecord struct {
	RecordID string `xml:"record_id"`
	Type     string `xml:"type"`
	Host     string `xml:"host"`
	Value    string `xml:"value"`
	TTL      string `xml:"ttl"`
	Distance string `xml:"distance"`
}

type response struct {
	Request struct {
		Operation string `xml:"operation"`
		IP        string `xml:"ip"`
	} `xml:"request"`
	Reply reply `xml:"reply"`
}

func (rr resourceRecord) normalize() Record {
	ttl, _ := strconv.Atoi(strings.TrimSpace(rr.TTL))
	distance, _ := strconv.Atoi(strings.TrimSpace(rr.Distance))
	return Record{
		ID:       strings.TrimSpace(rr.RecordID),
		Type:     RecordType(strings.ToUpper(strings.TrimSpace(rr.Type))),
		Host:     strings.TrimSpace(rr.Host),
		Value:    rr.Value,
		TTL:      ttl,
		Distance: distance,
	}
}
