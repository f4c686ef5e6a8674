package rip

import "github.com/confmode/confmode/pkg/configtree"

// RIP is the "protocols rip" subtree.
type RIP struct {
	DefaultDistance    string                      `yaml:"default-distance"`
	DefaultInformation *DefaultInformation         `yaml:"default-information"`
	DefaultMetric      string                      `yaml:"default-metric"`
	DistributeList     *DistributeList             `yaml:"distribute-list"`
	Interface          map[string]*Interface       `yaml:"interface"`
	Neighbor           configtree.Values           `yaml:"neighbor"`
	Network            configtree.Values           `yaml:"network"`
	NetworkDistance    map[string]*NetworkDistance `yaml:"network-distance"`
	PassiveInterface   configtree.Values           `yaml:"passive-interface"`
	Redistribute       map[string]*Redistribute    `yaml:"redistribute"`
	Route              configtree.Values           `yaml:"route"`
	Timers             *Timers                     `yaml:"timers"`
	Version            string                      `yaml:"version"`
}

type DefaultInformation struct {
	Originate configtree.Flag `yaml:"originate"`
}

// Direction names a filter per traffic direction.
type Direction struct {
	In  string `yaml:"in"`
	Out string `yaml:"out"`
}

type DistributeList struct {
	AccessList Direction                  `yaml:"access-list"`
	PrefixList Direction                  `yaml:"prefix-list"`
	Interface  map[string]*InterfaceLists `yaml:"interface"`
}

// InterfaceLists are the distribute lists bound to one interface.
type InterfaceLists struct {
	AccessList Direction `yaml:"access-list"`
	PrefixList Direction `yaml:"prefix-list"`
}

type Interface struct {
	Authentication *Authentication `yaml:"authentication"`
	Receive        *VersionOption  `yaml:"receive"`
	Send           *VersionOption  `yaml:"send"`
	SplitHorizon   *SplitHorizon   `yaml:"split-horizon"`
}

type Authentication struct {
	MD5               map[string]*MD5Key `yaml:"md5"`
	PlaintextPassword string             `yaml:"plaintext-password"`
}

type MD5Key struct {
	Password string `yaml:"password"`
}

type VersionOption struct {
	Version string `yaml:"version"`
}

type SplitHorizon struct {
	Disable       configtree.Flag `yaml:"disable"`
	PoisonReverse configtree.Flag `yaml:"poison-reverse"`
}

type NetworkDistance struct {
	AccessList string `yaml:"access-list"`
	Distance   string `yaml:"distance"`
}

type Redistribute struct {
	Metric   string `yaml:"metric"`
	RouteMap string `yaml:"route-map"`
}

type Timers struct {
	Update            string `yaml:"update"`
	Timeout           string `yaml:"timeout"`
	GarbageCollection string `yaml:"garbage-collection"`
}
