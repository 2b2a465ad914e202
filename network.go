package main

import (
	"fmt"
	"net"
	"sort"

	"github.com/yl2chen/cidranger"

	"github.com/vasyahuyasa/apachelog/apachelog"
	"github.com/vasyahuyasa/apachelog/log"
)

const networkField = "network"

var _ enricher = &networkLabeler{}

type labeledNetwork struct {
	ipnet net.IPNet
	label string
}

func (n *labeledNetwork) Network() net.IPNet {
	return n.ipnet
}

// networkLabeler names the network the address field belongs to. The most
// specific network wins.
type networkLabeler struct {
	field  string
	ranger cidranger.Ranger
}

func newNetworkLabeler(field string, networks map[string][]string) (*networkLabeler, error) {
	ranger := cidranger.NewPCTrieRanger()

	labels := make([]string, 0, len(networks))
	for label := range networks {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	rules := 0

	for _, label := range labels {
		for _, cidr := range networks[label] {
			p, err := parseIPorCIDR(cidr)
			if err != nil {
				return nil, fmt.Errorf("cannot parse network %q of %q: %w", cidr, label, err)
			}

			_, ipnet, err := net.ParseCIDR(p.String())
			if err != nil {
				return nil, fmt.Errorf("cannot parse network %q of %q: %w", cidr, label, err)
			}

			err = ranger.Insert(&labeledNetwork{ipnet: *ipnet, label: label})
			if err != nil {
				return nil, fmt.Errorf("cannot add network %q: %w", cidr, err)
			}

			rules++
		}
	}

	log.Printf("network labels created with %d rules", rules)

	return &networkLabeler{
		field:  field,
		ranger: ranger,
	}, nil
}

func (nl *networkLabeler) label(ip net.IP) (string, bool) {
	entries, err := nl.ranger.ContainingNetworks(ip)
	if err != nil || len(entries) == 0 {
		return "", false
	}

	var best *labeledNetwork
	bestSize := -1

	for _, e := range entries {
		n := e.(*labeledNetwork)

		size, _ := n.ipnet.Mask.Size()
		if size > bestSize {
			best, bestSize = n, size
		}
	}

	return best.label, true
}

func (nl *networkLabeler) Enrich(r *apachelog.Record) {
	value, ok := r.Get(nl.field)
	if !ok {
		return
	}

	ip := net.ParseIP(value)
	if ip == nil {
		return
	}

	if label, ok := nl.label(ip); ok {
		r.Set(networkField, label)
	}
}
