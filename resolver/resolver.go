// Package resolver answers every DNS question with the portal address, which
// is what makes clients on the access point land on the portal.
package resolver

import (
	"context"
	"net"
	"sync"

	"github.com/go-errors/errors"
	"github.com/miekg/dns"
)

// DefaultTTL is the time to live of every answer, in seconds.
const DefaultTTL = 60

var _ dns.Handler = (*Resolver)(nil)

type Config struct {
	// Address is returned for every question. Must be an IPv4 address.
	Address net.IP
	TTL     uint32
	Logger  Logger
}

type Resolver struct {
	log     Logger
	address net.IP
	ttl     uint32

	serverMtx sync.Mutex
	server    *dns.Server
}

func New(config *Config) (*Resolver, error) {
	address := config.Address.To4()
	if address == nil {
		return nil, errors.Errorf("could not use %v as resolver address: not an IPv4 address", config.Address)
	}

	r := &Resolver{
		address: address,
		ttl:     config.TTL,
	}

	if config.Logger != nil {
		r.log = config.Logger
	} else {
		r.log = noopLogger{}
	}

	if r.ttl == 0 {
		r.ttl = DefaultTTL
	}

	return r, nil
}

// Answer builds the reply to req. Queries get one A record per question,
// whatever type or class was asked for. Other opcodes are refused as not
// implemented.
func (r *Resolver) Answer(req *dns.Msg) *dns.Msg {
	m := new(dns.Msg)
	m.SetReply(req)
	m.Authoritative = true
	m.RecursionAvailable = false

	if req.Opcode != dns.OpcodeQuery {
		m.SetRcode(req, dns.RcodeNotImplemented)
		return m
	}

	for _, q := range req.Question {
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   q.Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    r.ttl,
			},
			A: r.address,
		})
	}

	return m
}

func (r *Resolver) ServeDNS(w dns.ResponseWriter, req *dns.Msg) {
	for _, q := range req.Question {
		r.log.Debugf("Answering %v %v from %v with %v", dns.TypeToString[q.Qtype], q.Name, w.RemoteAddr(), r.address)
	}

	err := w.WriteMsg(r.Answer(req))
	if err != nil {
		r.log.Warnf("Could not answer %v: %v", w.RemoteAddr(), err)
	}
}

// Serve answers queries arriving on pc until Shutdown is called.
func (r *Resolver) Serve(pc net.PacketConn) error {
	server := &dns.Server{
		PacketConn: pc,
		Handler:    r,
	}

	r.serverMtx.Lock()
	r.server = server
	r.serverMtx.Unlock()

	r.log.Infof("Answering DNS queries on %v with %v", pc.LocalAddr(), r.address)

	err := server.ActivateAndServe()
	if err != nil {
		return errors.Errorf("could not serve dns: %v", err)
	}

	return nil
}

// ListenAndServe binds a UDP socket on addr and serves it.
func (r *Resolver) ListenAndServe(addr string) error {
	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return errors.Errorf("could not listen on %v: %v", addr, err)
	}

	return r.Serve(pc)
}

func (r *Resolver) Shutdown(ctx context.Context) error {
	r.serverMtx.Lock()
	server := r.server
	r.serverMtx.Unlock()

	if server == nil {
		return nil
	}

	err := server.ShutdownContext(ctx)
	if err != nil {
		return errors.Errorf("could not shut down dns: %v", err)
	}

	return nil
}
