package serviceInfo

import "fmt"

type ServiceInfo string

var (
	SERVICE_NAME        ServiceInfo = "CanDIG Metadata Service"
	SERVICE_WELCOME     ServiceInfo = "Welcome to the CanDIG clinical and genomic metadata API!"
	SERVICE_DESCRIPTION ServiceInfo = "Federated clinical and genomic metadata search service for a CanDIG node."
	SERVICE_CONTACT     ServiceInfo = "mailto:info@distributedgenomics.ca"

	SERVICE_ARTIFACT    ServiceInfo = "metadata"
	SERVICE_VERSION     ServiceInfo = "1.0.0"
	SERVICE_TYPE_NO_VER ServiceInfo = ServiceInfo(fmt.Sprintf("ca.distributedgenomics:%s", SERVICE_ARTIFACT))
	SERVICE_ID          ServiceInfo = SERVICE_TYPE_NO_VER
	SERVICE_TYPE        ServiceInfo = ServiceInfo(fmt.Sprintf("%s:%s", SERVICE_TYPE_NO_VER, SERVICE_VERSION))
)
