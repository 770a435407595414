package sim

import "strings"

// ComputeRole is a software function in the processing chain of a request.
type ComputeRole string

const (
	RoleClient         ComputeRole = "client"
	RoleWTS            ComputeRole = "wts"
	RoleWeb            ComputeRole = "web"
	RolePortal         ComputeRole = "portal"
	RoleDBMS           ComputeRole = "dbms"
	RoleFile           ComputeRole = "file"
	RoleCache          ComputeRole = "cache"
	RoleHosting        ComputeRole = "hosting"
	RoleGIS            ComputeRole = "soc"
	RoleSDE            ComputeRole = "sde"
	RoleGeoAnalytic    ComputeRole = "geoanalytic"
	RoleGeoEvent       ComputeRole = "geoevent"
	RoleRasterAnalytic ComputeRole = "rasteranalytic"
)

// AllComputeRoles lists every known role in declaration order.
var AllComputeRoles = []ComputeRole{
	RoleClient, RoleWTS, RoleWeb, RolePortal, RoleDBMS, RoleFile, RoleCache,
	RoleHosting, RoleGIS, RoleSDE, RoleGeoAnalytic, RoleGeoEvent, RoleRasterAnalytic,
}

var validComputeRoles = func() map[ComputeRole]bool {
	m := make(map[ComputeRole]bool, len(AllComputeRoles))
	for _, r := range AllComputeRoles {
		m[r] = true
	}
	return m
}()

// IsValidComputeRole reports whether name is a known compute role.
func IsValidComputeRole(name string) bool {
	return validComputeRoles[ComputeRole(name)]
}

// IsRenderer is true for roles that render raw data into the final result.
// Response data size steps down from server to client size at the first one.
func (r ComputeRole) IsRenderer() bool {
	switch r {
	case RoleClient, RoleWTS, RoleHosting, RoleGIS, RoleCache:
		return true
	}
	return false
}

// ServiceType is the kind of service a workflow exercises. Each service type
// has a fixed chain of server roles that cooperate to build a response.
type ServiceType string

const (
	ServiceMap             ServiceType = "map"
	ServiceCache           ServiceType = "$$"
	ServiceFeature         ServiceType = "feature"
	ServiceImage           ServiceType = "image"
	ServiceGeocode         ServiceType = "geocode"
	ServiceGeodata         ServiceType = "geodata"
	ServiceGeometry        ServiceType = "geometry"
	ServiceGeoprocessing   ServiceType = "geoprocessing"
	ServiceNetwork         ServiceType = "network"
	ServiceScene           ServiceType = "scene"
	ServiceSchematic       ServiceType = "schematic"
	ServiceSync            ServiceType = "sync"
	ServiceStream          ServiceType = "stream"
	ServiceCustom          ServiceType = "custom"
	ServiceInsights        ServiceType = "insights"
	ServiceRasterAnalytics ServiceType = "raster_analytics"
	ServiceGeoAnalytics    ServiceType = "geo_analytics"
)

var knownServiceTypes = map[ServiceType]bool{
	ServiceMap: true, ServiceCache: true, ServiceFeature: true, ServiceImage: true,
	ServiceGeocode: true, ServiceGeodata: true, ServiceGeometry: true,
	ServiceGeoprocessing: true, ServiceNetwork: true, ServiceScene: true,
	ServiceSchematic: true, ServiceSync: true, ServiceStream: true,
	ServiceCustom: true, ServiceInsights: true, ServiceRasterAnalytics: true,
	ServiceGeoAnalytics: true,
}

// ParseServiceType maps a case-insensitive name to a ServiceType.
// Unknown names map to ServiceCustom.
func ParseServiceType(name string) ServiceType {
	st := ServiceType(strings.ToLower(name))
	if knownServiceTypes[st] {
		return st
	}
	return ServiceCustom
}

// RoleChain returns the ordered server roles a request of this type visits
// on its way in. The returned slice is a fresh copy.
func (s ServiceType) RoleChain() []ComputeRole {
	switch s {
	case ServiceGeoAnalytics:
		return []ComputeRole{RoleWTS, RoleWeb, RolePortal, RoleHosting, RoleGeoAnalytic, RoleDBMS, RoleFile}
	case ServiceRasterAnalytics:
		return []ComputeRole{RoleWTS, RoleWeb, RolePortal, RoleHosting, RoleRasterAnalytic, RoleDBMS, RoleFile}
	case ServiceCache:
		return []ComputeRole{RoleWTS, RoleWeb, RoleCache}
	default:
		return []ComputeRole{RoleWTS, RoleWeb, RolePortal, RoleGIS, RoleDBMS, RoleFile}
	}
}

// DataSourceType is the storage format behind a configured workflow.
type DataSourceType string

const (
	DataSourceDBMS         DataSourceType = "DB"
	DataSourceSmallFileGDB DataSourceType = "SFG"
	DataSourceLargeFileGDB DataSourceType = "LFG"
	DataSourceSmallShape   DataSourceType = "SSF"
	DataSourceMediumShape  DataSourceType = "MSF"
	DataSourceLargeShape   DataSourceType = "LSF"
	DataSourceCachedTiles  DataSourceType = "Cache"
)

// ParseDataSourceType returns the matching data source, or DataSourceDBMS
// when name is empty or unknown.
func ParseDataSourceType(name string) DataSourceType {
	switch ds := DataSourceType(name); ds {
	case DataSourceSmallFileGDB, DataSourceLargeFileGDB, DataSourceSmallShape,
		DataSourceMediumShape, DataSourceLargeShape, DataSourceCachedTiles:
		return ds
	}
	return DataSourceDBMS
}

// AppAdjustment is the correction factor applied to compute effort.
func (d DataSourceType) AppAdjustment() float64 {
	switch d {
	case DataSourceSmallFileGDB:
		return 0.8
	case DataSourceMediumShape:
		return 2.0
	case DataSourceLargeShape:
		return 3.0
	default:
		return 1.0
	}
}

// TrafficAdjustment is the correction factor applied to network traffic.
func (d DataSourceType) TrafficAdjustment() float64 {
	switch d {
	case DataSourceLargeFileGDB:
		return 1.5
	case DataSourceSmallShape:
		return 5.0
	case DataSourceMediumShape:
		return 10.0
	case DataSourceLargeShape:
		return 15.0
	default:
		return 1.0
	}
}
