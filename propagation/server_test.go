package propagation

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// authoritative is a minimal authoritative server for one zone, answering TXT
// questions from an in-memory table.
type authoritative struct {
	zone string

	mu      sync.Mutex
	txt     map[string][][]string
	queries int
}

func (a *authoritative) setTXT(fqdn string, txt ...[]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.txt[dns.Fqdn(strings.ToLower(fqdn))] = txt
}

func (a *authoritative) queryCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queries
}

func (a *authoritative) soaRecord(question dns.Question) *dns.SOA {
	soa := new(dns.SOA)
	soa.Hdr = dns.RR_Header{
		Name:   a.zone,
		Rrtype: dns.TypeSOA,
		Class:  dns.ClassINET,
		Ttl:    uint32((time.Minute * 5).Seconds()),
	}
	soa.Ns = "ns1." + a.zone
	soa.Mbox = "admin." + a.zone
	soa.Serial = 2024010100
	soa.Refresh = uint32((time.Minute * 15).Seconds())
	soa.Retry = uint32((time.Minute * 15).Seconds())
	soa.Expire = uint32((time.Minute * 30).Seconds())
	soa.Minttl = uint32((time.Minute * 5).Seconds())
	return soa
}

func (a *authoritative) handleTXT(question dns.Question, message *dns.Msg) {
	records, ok := a.txt[strings.ToLower(question.Name)]
	if !ok {
		message.Rcode = dns.RcodeNameError
		message.Ns = append(message.Ns, a.soaRecord(question))
		return
	}

	for _, txt := range records {
		message.Answer = append(message.Answer, &dns.TXT{
			Hdr: dns.RR_Header{
				Name:   question.Name,
				Rrtype: dns.TypeTXT,
				Class:  dns.ClassINET,
				Ttl:    3600,
			},
			Txt: txt,
		})
	}
	if len(records) == 0 {
		message.Ns = append(message.Ns, a.soaRecord(question))
	}
}

func (a *authoritative) ServeDNS(response dns.ResponseWriter, request *dns.Msg) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queries++

	message := new(dns.Msg)
	message.SetReply(request)
	message.Authoritative = true
	message.RecursionAvailable = false

	for _, question := range request.Question {
		switch question.Qtype {
		case dns.TypeTXT:
			a.handleTXT(question, message)
		default:
			message.Ns = append(message.Ns, a.soaRecord(question))
		}
	}

	response.WriteMsg(message)
}

// startAuthoritative serves zone on a random local UDP port and returns the
// server and its address.
func startAuthoritative(t *testing.T, zone string) (*authoritative, string) {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	a := &authoritative{zone: dns.Fqdn(zone), txt: map[string][][]string{}}
	started := make(chan struct{})
	server := &dns.Server{PacketConn: pc, Handler: a, NotifyStartedFunc: func() { close(started) }}
	go server.ActivateAndServe()
	<-started
	t.Cleanup(func() { server.Shutdown() })

	return a, pc.LocalAddr().String()
}
