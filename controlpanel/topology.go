package controlpanel

import (
	"fmt"
	"sort"
	"strings"
)

// Fixed container and routing parameters of the control panel.
const (
	ContainerName     = "artillery-control-panel"
	LogStreamPrefix   = "artillery-control-panel"
	UIContainerPort   = 3000
	APIContainerPort  = 3001
	TaskCPU           = 1024
	TaskMemoryMiB     = 2048
	ServiceCPU        = 2048
	ServiceMemoryMiB  = 4096
	PostHogKey        = "phc_ulEdqYX77EOA7NLzzJot2Hn9vjWLhejn4uTWXpVCYLr"
	AuthRulePriority  = 3
	APIRulePriority   = 4
	AuthPathPattern   = "/api/auth/*"
	APIPathPattern    = "/api/*"
	OutputExportName  = "AlbDnsName"
	TaskExecPolicy    = "service-role/AmazonECSTaskExecutionRolePolicy"
	TaskRolePrincipal = "ecs-tasks.amazonaws.com"
)

// SecretNames are the control panel secrets read from Parameter Store.
var SecretNames = []string{
	"NEXTAUTH_SECRET",
	"GITHUB_CLIENT_ID",
	"GITHUB_CLIENT_SECRET",
	"GITHUB_ALLOWED_USERS",
}

// Node IDs. They double as construct IDs in the CDK backend.
const (
	IDNetwork       = "destination-vpc"
	IDCluster       = "Cluster"
	IDAuthTable     = "next-auth"
	IDLoadBalancer  = "cp-alb"
	IDTaskRole      = "task-role"
	IDCLIUserPolicy = "cli-user"
	IDTask          = "TaskDef"
	IDService       = "cp-service"
	IDCertificate   = "Certificate"
	IDUIListener    = "ui-listener"
	IDAPIListener   = "api-listener"
	IDUITarget      = "ECS"
	IDAPITarget     = "ECS-api"
	IDAPIRule       = "api-route"
	IDAuthRule      = "next-auth-api-route"
	IDOutput        = "alb-dns-name-output"
)

// ResourceKind classifies topology nodes.
type ResourceKind string

const (
	KindVPC            ResourceKind = "vpc"
	KindCluster        ResourceKind = "ecs-cluster"
	KindTable          ResourceKind = "dynamodb-table"
	KindRole           ResourceKind = "iam-role"
	KindManagedPolicy  ResourceKind = "iam-managed-policy"
	KindParameter      ResourceKind = "ssm-parameter"
	KindTaskDefinition ResourceKind = "ecs-task-definition"
	KindService        ResourceKind = "ecs-service"
	KindLoadBalancer   ResourceKind = "alb"
	KindCertificate    ResourceKind = "acm-certificate"
	KindListener       ResourceKind = "alb-listener"
	KindTargetGroup    ResourceKind = "alb-target-group"
	KindListenerRule   ResourceKind = "alb-listener-rule"
	KindOutput         ResourceKind = "output"
)

// Protocol is a load balancer protocol.
type Protocol string

const (
	ProtocolHTTP  Protocol = "HTTP"
	ProtocolHTTPS Protocol = "HTTPS"
)

// NetworkRef refers to an existing VPC.
type NetworkRef struct {
	ID    string      `json:"id" yaml:"id"`
	Mode  NetworkMode `json:"mode" yaml:"mode"`
	VPCID string      `json:"vpcId,omitempty" yaml:"vpcId,omitempty"`
}

// ClusterSpec is the ECS cluster, created or referenced.
type ClusterSpec struct {
	ID        string      `json:"id" yaml:"id"`
	Name      string      `json:"name" yaml:"name"`
	Mode      ClusterMode `json:"mode" yaml:"mode"`
	NetworkID string      `json:"networkId" yaml:"networkId"`

	EnableFargateCapacityProviders bool `json:"enableFargateCapacityProviders" yaml:"enableFargateCapacityProviders"`
}

// KeySpec is a DynamoDB key attribute. Type is always "S" here.
type KeySpec struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// IndexSpec is a global secondary index.
type IndexSpec struct {
	Name          string  `json:"name" yaml:"name"`
	PartitionKey  KeySpec `json:"partitionKey" yaml:"partitionKey"`
	SortKey       KeySpec `json:"sortKey" yaml:"sortKey"`
	Projection    string  `json:"projection" yaml:"projection"`
	ReadCapacity  int     `json:"readCapacity" yaml:"readCapacity"`
	WriteCapacity int     `json:"writeCapacity" yaml:"writeCapacity"`
}

// TableSpec is the auth/session table.
type TableSpec struct {
	ID              string      `json:"id" yaml:"id"`
	Name            string      `json:"name" yaml:"name"`
	PartitionKey    KeySpec     `json:"partitionKey" yaml:"partitionKey"`
	SortKey         KeySpec     `json:"sortKey" yaml:"sortKey"`
	TTLAttribute    string      `json:"ttlAttribute" yaml:"ttlAttribute"`
	ReadCapacity    int         `json:"readCapacity" yaml:"readCapacity"`
	WriteCapacity   int         `json:"writeCapacity" yaml:"writeCapacity"`
	Indexes         []IndexSpec `json:"indexes" yaml:"indexes"`
	DestroyOnDelete bool        `json:"destroyOnDelete" yaml:"destroyOnDelete"`
}

// PolicyStatement is an Allow statement.
type PolicyStatement struct {
	Actions   []string `json:"actions" yaml:"actions"`
	Resources []Value  `json:"resources" yaml:"resources"`
}

// InlinePolicy is a named policy document embedded in a role.
type InlinePolicy struct {
	Name       string            `json:"name" yaml:"name"`
	Statements []PolicyStatement `json:"statements" yaml:"statements"`
}

// ManagedPolicyRef is a customer-managed policy attached by ARN.
type ManagedPolicyRef struct {
	ID  string `json:"id" yaml:"id"`
	ARN Value  `json:"arn" yaml:"arn"`
}

// RoleSpec is the task role.
type RoleSpec struct {
	ID                 string             `json:"id" yaml:"id"`
	Name               Value              `json:"name" yaml:"name"`
	Principal          string             `json:"principal" yaml:"principal"`
	AWSManagedPolicies []string           `json:"awsManagedPolicies" yaml:"awsManagedPolicies"`
	CustomerPolicies   []ManagedPolicyRef `json:"customerPolicies" yaml:"customerPolicies"`
	InlinePolicies     []InlinePolicy     `json:"inlinePolicies" yaml:"inlinePolicies"`
}

// EnvVar is a container environment variable.
type EnvVar struct {
	Name  string `json:"name" yaml:"name"`
	Value Value  `json:"value" yaml:"value"`
}

// SecretRef maps a container secret to a Parameter Store parameter.
type SecretRef struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Parameter string `json:"parameter" yaml:"parameter"`
}

// ContainerSpec is the single control panel container.
type ContainerSpec struct {
	Name            string      `json:"name" yaml:"name"`
	Image           string      `json:"image" yaml:"image"`
	Ports           []int       `json:"ports" yaml:"ports"`
	Environment     []EnvVar    `json:"environment" yaml:"environment"`
	Secrets         []SecretRef `json:"secrets" yaml:"secrets"`
	LogStreamPrefix string      `json:"logStreamPrefix" yaml:"logStreamPrefix"`
}

// TaskSpec is the Fargate task definition.
type TaskSpec struct {
	ID              string        `json:"id" yaml:"id"`
	CPU             int           `json:"cpu" yaml:"cpu"`
	MemoryMiB       int           `json:"memoryMiB" yaml:"memoryMiB"`
	OperatingSystem string        `json:"operatingSystem" yaml:"operatingSystem"`
	Architecture    string        `json:"architecture" yaml:"architecture"`
	RoleID          string        `json:"roleId" yaml:"roleId"`
	Container       ContainerSpec `json:"container" yaml:"container"`
}

// ServiceSpec is the Fargate service. CPU and MemoryMiB are independent of
// the task sizing.
type ServiceSpec struct {
	ID             string `json:"id" yaml:"id"`
	ClusterID      string `json:"clusterId" yaml:"clusterId"`
	TaskID         string `json:"taskId" yaml:"taskId"`
	DesiredCount   int    `json:"desiredCount" yaml:"desiredCount"`
	CPU            int    `json:"cpu" yaml:"cpu"`
	MemoryMiB      int    `json:"memoryMiB" yaml:"memoryMiB"`
	AssignPublicIP bool   `json:"assignPublicIp" yaml:"assignPublicIp"`
}

// RedirectSpec redirects one listener port to another.
type RedirectSpec struct {
	SourceProtocol Protocol `json:"sourceProtocol" yaml:"sourceProtocol"`
	SourcePort     int      `json:"sourcePort" yaml:"sourcePort"`
	TargetProtocol Protocol `json:"targetProtocol" yaml:"targetProtocol"`
	TargetPort     int      `json:"targetPort" yaml:"targetPort"`
}

// LoadBalancerSpec is the application load balancer.
type LoadBalancerSpec struct {
	ID             string        `json:"id" yaml:"id"`
	NetworkID      string        `json:"networkId" yaml:"networkId"`
	InternetFacing bool          `json:"internetFacing" yaml:"internetFacing"`
	Redirect       *RedirectSpec `json:"redirect,omitempty" yaml:"redirect,omitempty"`
}

// CertificateSpec is an imported ACM certificate.
type CertificateSpec struct {
	ID  string `json:"id" yaml:"id"`
	ARN string `json:"arn" yaml:"arn"`
}

// ListenerSpec is a load balancer listener.
type ListenerSpec struct {
	ID            string   `json:"id" yaml:"id"`
	Port          int      `json:"port" yaml:"port"`
	Protocol      Protocol `json:"protocol" yaml:"protocol"`
	CertificateID string   `json:"certificateId,omitempty" yaml:"certificateId,omitempty"`
	DefaultTarget string   `json:"defaultTarget" yaml:"defaultTarget"`
}

// HealthCheckSpec configures target health checks. Empty fields keep the
// load balancer defaults.
type HealthCheckSpec struct {
	Path             string `json:"path" yaml:"path"`
	Port             string `json:"port,omitempty" yaml:"port,omitempty"`
	HealthyHTTPCodes string `json:"healthyHttpCodes,omitempty" yaml:"healthyHttpCodes,omitempty"`
}

// TargetSpec is a target group routing to one container port of the service.
type TargetSpec struct {
	ID            string          `json:"id" yaml:"id"`
	ListenerID    string          `json:"listenerId" yaml:"listenerId"`
	Port          int             `json:"port" yaml:"port"`
	Protocol      Protocol        `json:"protocol" yaml:"protocol"`
	ServiceID     string          `json:"serviceId" yaml:"serviceId"`
	ContainerName string          `json:"containerName" yaml:"containerName"`
	ContainerPort int             `json:"containerPort" yaml:"containerPort"`
	HealthCheck   HealthCheckSpec `json:"healthCheck" yaml:"healthCheck"`
}

// RuleSpec is a path-based listener rule. Lower priorities are evaluated first.
type RuleSpec struct {
	ID           string   `json:"id" yaml:"id"`
	ListenerID   string   `json:"listenerId" yaml:"listenerId"`
	Priority     int      `json:"priority" yaml:"priority"`
	PathPatterns []string `json:"pathPatterns" yaml:"pathPatterns"`
	TargetID     string   `json:"targetId" yaml:"targetId"`
}

// OutputSpec is an exported stack output.
type OutputSpec struct {
	ID          string `json:"id" yaml:"id"`
	ExportName  string `json:"exportName" yaml:"exportName"`
	Description string `json:"description" yaml:"description"`
	Value       Value  `json:"value" yaml:"value"`
}

// Node is one resource in the dependency graph.
type Node struct {
	ID        string       `json:"id" yaml:"id"`
	Kind      ResourceKind `json:"kind" yaml:"kind"`
	Imported  bool         `json:"imported,omitempty" yaml:"imported,omitempty"`
	DependsOn []string     `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// Topology is the abstract resource graph of the control panel deployment.
// It carries no provisioning-engine types; see NewControlPanelStack for the
// CDK translation.
type Topology struct {
	StackID   string            `json:"stackId" yaml:"stackId"`
	StackName string            `json:"stackName" yaml:"stackName"`
	Account   string            `json:"account,omitempty" yaml:"account,omitempty"`
	Region    string            `json:"region,omitempty" yaml:"region,omitempty"`
	Tags      map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`

	Network      NetworkRef       `json:"network" yaml:"network"`
	Cluster      ClusterSpec      `json:"cluster" yaml:"cluster"`
	AuthTable    TableSpec        `json:"authTable" yaml:"authTable"`
	TaskRole     RoleSpec         `json:"taskRole" yaml:"taskRole"`
	Task         TaskSpec         `json:"task" yaml:"task"`
	Service      ServiceSpec      `json:"service" yaml:"service"`
	LoadBalancer LoadBalancerSpec `json:"loadBalancer" yaml:"loadBalancer"`
	Certificate  *CertificateSpec `json:"certificate,omitempty" yaml:"certificate,omitempty"`
	Listeners    []ListenerSpec   `json:"listeners" yaml:"listeners"`
	Targets      []TargetSpec     `json:"targets" yaml:"targets"`
	Rules        []RuleSpec       `json:"rules" yaml:"rules"`
	Outputs      []OutputSpec     `json:"outputs" yaml:"outputs"`

	// SecondaryRegion is set when the deployment is a secondary.
	SecondaryRegion string `json:"secondaryRegion,omitempty" yaml:"secondaryRegion,omitempty"`
}

// Plan validates config and computes the resource graph. It performs no I/O
// and is deterministic.
func Plan(config StackConfig) (*Topology, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	account := Ref(AttrAccount)
	if config.Account != "" {
		account = Lit(config.Account)
	}
	region := Ref(AttrRegion)
	if config.Region != "" {
		region = Lit(config.Region)
	}

	t := &Topology{
		StackID:         config.StackID,
		StackName:       config.StackName,
		Account:         config.Account,
		Region:          config.Region,
		Tags:            copyTags(config.Tags),
		SecondaryRegion: config.SecondaryRegion,
	}

	t.Network = NetworkRef{ID: IDNetwork, Mode: config.Network.Mode}
	if config.Network.Mode == NetworkExplicit {
		t.Network.VPCID = config.Network.VPCID
	}

	t.Cluster = ClusterSpec{
		ID:                             IDCluster,
		Name:                           config.Cluster.Name,
		Mode:                           config.Cluster.Mode,
		NetworkID:                      IDNetwork,
		EnableFargateCapacityProviders: config.CreatesCluster(),
	}

	t.AuthTable = planAuthTable(config.AuthTableName)
	t.TaskRole = planTaskRole(config, account, region)
	t.LoadBalancer = LoadBalancerSpec{
		ID:             IDLoadBalancer,
		NetworkID:      IDNetwork,
		InternetFacing: config.InternetFacing,
	}
	t.Task = planTask(config)
	t.Service = ServiceSpec{
		ID:             IDService,
		ClusterID:      IDCluster,
		TaskID:         IDTask,
		DesiredCount:   1,
		CPU:            ServiceCPU,
		MemoryMiB:      ServiceMemoryMiB,
		AssignPublicIP: true,
	}

	planRouting(t, config)

	t.Outputs = []OutputSpec{{
		ID:          IDOutput,
		ExportName:  OutputExportName,
		Description: "DNS name of the ALB that serves Artillery Dashboard",
		Value:       Ref(AttrLoadBalancerDNSName),
	}}

	if err := t.checkRules(); err != nil {
		return nil, err
	}
	return t, nil
}

func planAuthTable(name string) TableSpec {
	return TableSpec{
		ID:            IDAuthTable,
		Name:          name,
		PartitionKey:  KeySpec{Name: "pk", Type: "S"},
		SortKey:       KeySpec{Name: "sk", Type: "S"},
		TTLAttribute:  "expires",
		ReadCapacity:  1,
		WriteCapacity: 1,
		Indexes: []IndexSpec{{
			Name:          "GSI1",
			PartitionKey:  KeySpec{Name: "GSI1PK", Type: "S"},
			SortKey:       KeySpec{Name: "GSI1SK", Type: "S"},
			Projection:    "ALL",
			ReadCapacity:  1,
			WriteCapacity: 1,
		}},
		DestroyOnDelete: true,
	}
}

func planTaskRole(config StackConfig, account, region Value) RoleSpec {
	cliPolicy := Lit(config.CLIUserPolicyARN)
	if config.CLIUserPolicyARN == "" {
		cliPolicy = Join(Lit("arn:aws:iam::"), account, Lit(":policy/artilleryio-cli-user-"), region)
	}

	tableARN := Ref(AttrAuthTableARN)
	return RoleSpec{
		ID:                 IDTaskRole,
		Name:               Join(Lit("artilleryio-control-panel-task-role-"), region),
		Principal:          TaskRolePrincipal,
		AWSManagedPolicies: []string{TaskExecPolicy},
		CustomerPolicies:   []ManagedPolicyRef{{ID: IDCLIUserPolicy, ARN: cliPolicy}},
		InlinePolicies: []InlinePolicy{
			{
				Name: "DynamoAuthTableAcccess",
				Statements: []PolicyStatement{
					{
						Actions: []string{
							"dynamodb:Query",
							"dynamodb:Scan",
							"dynamodb:GetItem",
							"dynamodb:PutItem",
							"dynamodb:UpdateItem",
							"dynamodb:DeleteItem",
						},
						Resources: []Value{tableARN},
					},
					{
						Actions:   []string{"dynamodb:Query", "dynamodb:Scan"},
						Resources: []Value{Join(tableARN, Lit("/index/*"))},
					},
				},
			},
			{
				Name: "ParamStoreAccess",
				Statements: []PolicyStatement{{
					Actions: []string{
						"ssm:GetParameter",
						"ssm:GetParameters",
						"ssm:DescribeParameters",
						"ssm:GetParametersByPath",
					},
					Resources: []Value{
						Join(Lit("arn:aws:ssm:"), region, Lit(":"), account, Lit(":parameter"+DefaultParameterNamespace+"/*")),
					},
				}},
			},
		},
	}
}

func planTask(config StackConfig) TaskSpec {
	url := Join(Lit(config.Scheme()+"://"), Ref(AttrLoadBalancerDNSName))
	env := []EnvVar{
		{Name: "NEXT_PUBLIC_POSTHOG_KEY", Value: Lit(PostHogKey)},
		{Name: "API_URL", Value: url},
		{Name: "NEXTAUTH_URL", Value: url},
	}
	if config.SecondaryRegion != "" {
		env = append(env, EnvVar{Name: "ARTILLERY_BACKEND", Value: Lit(config.SecondaryRegion)})
	}

	secrets := make([]SecretRef, 0, len(SecretNames))
	for _, name := range SecretNames {
		secrets = append(secrets, SecretRef{
			ID:        secretID(name),
			Name:      name,
			Parameter: DefaultParameterNamespace + "/" + name,
		})
	}

	return TaskSpec{
		ID:              IDTask,
		CPU:             TaskCPU,
		MemoryMiB:       TaskMemoryMiB,
		OperatingSystem: "LINUX",
		Architecture:    "X86_64",
		RoleID:          IDTaskRole,
		Container: ContainerSpec{
			Name:            ContainerName,
			Image:           config.Image,
			Ports:           []int{UIContainerPort, APIContainerPort},
			Environment:     env,
			Secrets:         secrets,
			LogStreamPrefix: LogStreamPrefix,
		},
	}
}

// planRouting declares the redirect, listeners, target groups and rules. The
// API listener port is the UI port's TLS counterpart: 80/8000 or 443/8443.
func planRouting(t *Topology, config StackConfig) {
	protocol := ProtocolHTTP
	uiPort, apiPort := 80, 8000
	certID := ""
	if config.TLS.Enabled {
		protocol = ProtocolHTTPS
		uiPort, apiPort = 443, 8443
		certID = IDCertificate
		t.Certificate = &CertificateSpec{ID: IDCertificate, ARN: config.TLS.CertificateARN}
		t.LoadBalancer.Redirect = &RedirectSpec{
			SourceProtocol: ProtocolHTTP,
			SourcePort:     80,
			TargetProtocol: ProtocolHTTPS,
			TargetPort:     443,
		}
	}

	t.Listeners = []ListenerSpec{
		{ID: IDUIListener, Port: uiPort, Protocol: protocol, CertificateID: certID, DefaultTarget: IDUITarget},
		{ID: IDAPIListener, Port: apiPort, Protocol: protocol, CertificateID: certID, DefaultTarget: IDAPITarget},
	}

	t.Targets = []TargetSpec{
		{
			ID:            IDUITarget,
			ListenerID:    IDUIListener,
			Port:          uiPort,
			Protocol:      ProtocolHTTP,
			ServiceID:     IDService,
			ContainerName: ContainerName,
			ContainerPort: UIContainerPort,
			HealthCheck: HealthCheckSpec{
				Path:             "/",
				Port:             fmt.Sprint(UIContainerPort),
				HealthyHTTPCodes: "200,301,307,308",
			},
		},
		{
			ID:            IDAPITarget,
			ListenerID:    IDAPIListener,
			Port:          apiPort,
			Protocol:      ProtocolHTTP,
			ServiceID:     IDService,
			ContainerName: ContainerName,
			ContainerPort: APIContainerPort,
			HealthCheck:   HealthCheckSpec{Path: "/healthz"},
		},
	}

	// Auth endpoints are served by the UI process, so the auth rule must be
	// evaluated before the generic API rule.
	t.Rules = []RuleSpec{
		{ID: IDAPIRule, ListenerID: IDUIListener, Priority: APIRulePriority, PathPatterns: []string{APIPathPattern}, TargetID: IDAPITarget},
		{ID: IDAuthRule, ListenerID: IDUIListener, Priority: AuthRulePriority, PathPatterns: []string{AuthPathPattern}, TargetID: IDUITarget},
	}
}

func (t *Topology) checkRules() error {
	seen := make(map[string]map[int]string)
	for _, r := range t.Rules {
		if _, ok := t.Listener(r.ListenerID); !ok {
			return fmt.Errorf("rule %s: unknown listener %s", r.ID, r.ListenerID)
		}
		if _, ok := t.Target(r.TargetID); !ok {
			return fmt.Errorf("rule %s: unknown target %s", r.ID, r.TargetID)
		}
		if seen[r.ListenerID] == nil {
			seen[r.ListenerID] = make(map[int]string)
		}
		if other, dup := seen[r.ListenerID][r.Priority]; dup {
			return fmt.Errorf("rules %s and %s share priority %d on %s", other, r.ID, r.Priority, r.ListenerID)
		}
		seen[r.ListenerID][r.Priority] = r.ID
	}
	return nil
}

// Listener returns the listener with the given ID.
func (t *Topology) Listener(id string) (ListenerSpec, bool) {
	for _, l := range t.Listeners {
		if l.ID == id {
			return l, true
		}
	}
	return ListenerSpec{}, false
}

// Target returns the target group with the given ID.
func (t *Topology) Target(id string) (TargetSpec, bool) {
	for _, tg := range t.Targets {
		if tg.ID == id {
			return tg, true
		}
	}
	return TargetSpec{}, false
}

// RulesFor returns the rules of a listener in evaluation order.
func (t *Topology) RulesFor(listenerID string) []RuleSpec {
	var rules []RuleSpec
	for _, r := range t.Rules {
		if r.ListenerID == listenerID {
			rules = append(rules, r)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
	return rules
}

// Route returns the target a request path reaches on the given listener, and
// the matching rule if any. Rules are evaluated by ascending priority; when
// none matches the listener's default target is used.
func (t *Topology) Route(listenerID, path string) (TargetSpec, *RuleSpec, error) {
	l, ok := t.Listener(listenerID)
	if !ok {
		return TargetSpec{}, nil, fmt.Errorf("unknown listener %s", listenerID)
	}
	for _, r := range t.RulesFor(listenerID) {
		for _, p := range r.PathPatterns {
			if MatchPathPattern(p, path) {
				tg, _ := t.Target(r.TargetID)
				rule := r
				return tg, &rule, nil
			}
		}
	}
	tg, ok := t.Target(l.DefaultTarget)
	if !ok {
		return TargetSpec{}, nil, fmt.Errorf("listener %s has no default target", listenerID)
	}
	return tg, nil, nil
}

// Nodes lists every resource in declaration order with its dependencies.
func (t *Topology) Nodes() []Node {
	nodes := []Node{
		{ID: t.Network.ID, Kind: KindVPC, Imported: true},
		{ID: t.Cluster.ID, Kind: KindCluster, Imported: t.Cluster.Mode == ClusterReference, DependsOn: []string{t.Cluster.NetworkID}},
		{ID: t.AuthTable.ID, Kind: KindTable},
		{ID: t.LoadBalancer.ID, Kind: KindLoadBalancer, DependsOn: []string{t.LoadBalancer.NetworkID}},
	}

	for _, p := range t.TaskRole.CustomerPolicies {
		nodes = append(nodes, Node{ID: p.ID, Kind: KindManagedPolicy, Imported: true})
	}
	roleDeps := []string{t.AuthTable.ID}
	for _, p := range t.TaskRole.CustomerPolicies {
		roleDeps = append(roleDeps, p.ID)
	}
	nodes = append(nodes, Node{ID: t.TaskRole.ID, Kind: KindRole, DependsOn: roleDeps})

	taskDeps := []string{t.Task.RoleID, t.LoadBalancer.ID}
	for _, s := range t.Task.Container.Secrets {
		nodes = append(nodes, Node{ID: s.ID, Kind: KindParameter, Imported: true})
		taskDeps = append(taskDeps, s.ID)
	}
	nodes = append(nodes,
		Node{ID: t.Task.ID, Kind: KindTaskDefinition, DependsOn: taskDeps},
		Node{ID: t.Service.ID, Kind: KindService, DependsOn: []string{t.Service.ClusterID, t.Service.TaskID}},
	)

	if t.Certificate != nil {
		nodes = append(nodes, Node{ID: t.Certificate.ID, Kind: KindCertificate, Imported: true})
	}
	for _, l := range t.Listeners {
		deps := []string{t.LoadBalancer.ID}
		if l.CertificateID != "" {
			deps = append(deps, l.CertificateID)
		}
		nodes = append(nodes, Node{ID: l.ID, Kind: KindListener, DependsOn: deps})
	}
	for _, tg := range t.Targets {
		nodes = append(nodes, Node{ID: tg.ID, Kind: KindTargetGroup, DependsOn: []string{tg.ListenerID, tg.ServiceID}})
	}
	for _, r := range t.Rules {
		nodes = append(nodes, Node{ID: r.ID, Kind: KindListenerRule, DependsOn: []string{r.ListenerID, r.TargetID}})
	}
	for _, o := range t.Outputs {
		nodes = append(nodes, Node{ID: o.ID, Kind: KindOutput, DependsOn: []string{t.LoadBalancer.ID}})
	}
	return nodes
}

func secretID(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

func copyTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
