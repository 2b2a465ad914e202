package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"time"

	"go4.org/netipx"

	"github.com/vasyahuyasa/apachelog/apachelog"
	"github.com/vasyahuyasa/apachelog/log"
)

const (
	listFilterSrcTypeTxt         = "txt"
	listFilterSrcTypeAWSIpRanges = "aws_ip_ranges"

	httpRequestTimeout = time.Second * 5
)

var _ filter = &listFilter{}

type listFilterSrcConfig struct {
	Src              string   `yaml:"src"`
	Type             string   `yaml:"type"`
	Action           string   `yaml:"action"`
	AwsServiceFilter []string `yaml:"aws_service_filter"`
}

type listFilterConfig struct {
	Field   string                `yaml:"field"`
	Sources []listFilterSrcConfig `yaml:"sources"`
}

type ipList struct {
	ipset  *netipx.IPSet
	action filterAction
}

// listFilter decides on records whose address field is in one of the
// lists. Lists are checked in configuration order.
type listFilter struct {
	field string
	lists []ipList
}

func newListFilter(cfg listFilterConfig) (*listFilter, error) {
	var lists []ipList

	for _, srcCfg := range cfg.Sources {
		action, err := parseFilterAction(srcCfg.Action)
		if err != nil {
			return nil, err
		}

		data, err := bytesFromSrc(srcCfg.Src)
		if err != nil {
			return nil, fmt.Errorf("cannot get %s list %q: %w", srcCfg.Type, srcCfg.Src, err)
		}

		var prefixes []netip.Prefix

		switch srcCfg.Type {
		case listFilterSrcTypeTxt:
			prefixes = parseTxt(data)

		case listFilterSrcTypeAWSIpRanges:
			prefixes, err = parseAWSIpRanges(data, srcCfg.AwsServiceFilter)
			if err != nil {
				return nil, fmt.Errorf("cannot parse aws_ip_ranges: %w", err)
			}

		default:
			return nil, fmt.Errorf("unknown source type %q (supported types %v)", srcCfg.Type, []string{listFilterSrcTypeTxt, listFilterSrcTypeAWSIpRanges})
		}

		ipset, err := buildIPSet(prefixes)
		if err != nil {
			return nil, fmt.Errorf("cannot build ip set from %q: %w", srcCfg.Src, err)
		}

		lists = append(lists, ipList{
			ipset:  ipset,
			action: action,
		})

		log.Printf("list %s (%s) created with %d rules action = %s", srcCfg.Type, srcCfg.Src, len(prefixes), srcCfg.Action)
	}

	return &listFilter{
		field: cfg.Field,
		lists: lists,
	}, nil
}

func (c *listFilter) Check(r *apachelog.Record) decision {
	value, ok := r.Get(c.field)
	if !ok {
		return decisionNone
	}

	ip, err := netip.ParseAddr(value)
	if err != nil {
		// host names and "-" are not listed
		return decisionNone
	}

	for _, list := range c.lists {
		if list.contains(ip) {
			return list.action.decision()
		}
	}

	return decisionNone
}

func (list *ipList) contains(ip netip.Addr) bool {
	return list.ipset.Contains(ip.Unmap())
}

func buildIPSet(prefixes []netip.Prefix) (*netipx.IPSet, error) {
	var builder netipx.IPSetBuilder

	for _, p := range prefixes {
		builder.AddPrefix(p)
	}

	return builder.IPSet()
}

func bytesFromSrc(src string) ([]byte, error) {
	// read file over network
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		client := http.Client{
			Timeout: httpRequestTimeout,
		}
		res, err := client.Get(src)
		if err != nil {
			return nil, fmt.Errorf("cannot perform GET query to %q: %w", src, err)
		}

		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("GET %q: unexpected status %s", src, res.Status)
		}

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("cannot read from %q: %w", src, err)
		}

		return data, nil
	}

	// read local file
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("cannot read from %q: %w", src, err)
	}

	return data, nil
}

func parseTxt(data []byte) []netip.Prefix {
	scanner := bufio.NewScanner(bytes.NewBuffer(data))

	var prefixes []netip.Prefix

	for scanner.Scan() {
		// remove comments and trim
		str := strings.TrimSpace(strings.Split(scanner.Text(), "#")[0])
		if str == "" {
			continue
		}

		p, err := parseIPorCIDR(str)
		if err != nil {
			log.Printf("cannot parse %q: %v", str, err)
			continue
		}

		prefixes = append(prefixes, p)
	}

	return prefixes
}

func parseAWSIpRanges(data []byte, services []string) ([]netip.Prefix, error) {
	// some field are ommited
	type awsIpRanges struct {
		Prefixes []struct {
			IpPrefix string `json:"ip_prefix"`
			Service  string `json:"service"`
		} `json:"prefixes"`
	}

	var ranges awsIpRanges

	err := json.Unmarshal(data, &ranges)
	if err != nil {
		return nil, fmt.Errorf("cannot unmarshal aws ip range data: %w", err)
	}

	var prefixes []netip.Prefix

	for _, r := range ranges.Prefixes {
		if strInSlice(r.Service, services) {
			p, err := parseIPorCIDR(r.IpPrefix)
			if err != nil {
				log.Printf("cannot parse %q: %v", r.IpPrefix, err)
				continue
			}

			prefixes = append(prefixes, p)
		}
	}

	return prefixes, nil
}

func strInSlice(str string, all []string) bool {
	for _, v := range all {
		if v == str {
			return true
		}
	}

	return false
}

// parseIPorCIDR treats a single address as a full length prefix.
func parseIPorCIDR(ip string) (netip.Prefix, error) {
	if strings.IndexByte(ip, '/') != -1 {
		p, err := netip.ParsePrefix(ip)
		if err != nil {
			return netip.Prefix{}, err
		}

		return p.Masked(), nil
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return netip.Prefix{}, err
	}

	addr = addr.Unmap()

	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
