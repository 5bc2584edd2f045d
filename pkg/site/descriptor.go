package site

import (
	"fmt"
	"net/url"
)

// DescriptorConfig holds the optional descriptor fields.
type DescriptorConfig struct {
	Description string
	Site        *url.URL
	Author      string
	License     string
}

// Descriptor is immutable metadata about a site plugin.
type Descriptor struct {
	label       string
	description string
	site        *url.URL
	author      string
	license     string
}

// NewDescriptor never fails. The config is copied, later changes to it or to
// cfg.Site do not affect the descriptor.
func NewDescriptor(label string, cfg DescriptorConfig) Descriptor {
	return Descriptor{
		label:       label,
		description: cfg.Description,
		site:        cloneURL(cfg.Site),
		author:      cfg.Author,
		license:     cfg.License,
	}
}

// Label identifies the plugin in diagnostics.
func (d Descriptor) Label() string {
	return d.label
}

func (d Descriptor) Description() (string, bool) {
	return d.description, d.description != ""
}

// Site returns a copy of the plugin's origin.
func (d Descriptor) Site() (*url.URL, bool) {
	if d.site == nil {
		return nil, false
	}
	return cloneURL(d.site), true
}

func (d Descriptor) Author() (string, bool) {
	return d.author, d.author != ""
}

func (d Descriptor) License() (string, bool) {
	return d.license, d.license != ""
}

func (d Descriptor) String() string {
	if d.site == nil {
		return d.label
	}
	return fmt.Sprintf("%s (%s)", d.label, d.site)
}

// DescriptorInfo is the serializable view of a Descriptor.
type DescriptorInfo struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Site        string `json:"site,omitempty"`
	Author      string `json:"author,omitempty"`
	License     string `json:"license,omitempty"`
}

func (d Descriptor) Info() DescriptorInfo {
	info := DescriptorInfo{
		Label:       d.label,
		Description: d.description,
		Author:      d.author,
		License:     d.license,
	}
	if d.site != nil {
		info.Site = d.site.String()
	}
	return info
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}
